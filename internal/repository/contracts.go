package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

// ContractRepository is the contract registry. Implementations must make
// Update an atomic read-modify-write per contract.
type ContractRepository interface {
	Create(ctx context.Context, c *entity.Contract) error
	Get(ctx context.Context, id string) (*entity.Contract, error)
	// List returns contracts in insertion order, optionally filtered by status.
	List(ctx context.Context, status *constants.ContractStatus) ([]*entity.Contract, error)
	// Update loads the contract, applies fn and persists the result unless fn errors.
	Update(ctx context.Context, id string, fn func(*entity.Contract) error) (*entity.Contract, error)
}

// HealthChecker is implemented by stores backed by an external service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

func notFound(id string) error {
	return common.WrapError(common.ErrNotFound, fmt.Sprintf("contract %s", id))
}

func encodeData(d *entity.Document) (*string, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode contract data: %w", err)
	}
	s := string(b)
	return &s, nil
}

func decodeData(s *string) (*entity.Document, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var d entity.Document
	if err := json.Unmarshal([]byte(*s), &d); err != nil {
		return nil, fmt.Errorf("decode contract data: %w", err)
	}
	return &d, nil
}
