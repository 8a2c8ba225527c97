package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

// MemoryStore keeps contracts in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*entity.Contract
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*entity.Contract)}
}

func (s *MemoryStore) Create(_ context.Context, c *entity.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; ok {
		return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("contract %s already exists", c.ID))
	}
	s.byID[c.ID] = c.Clone()
	s.order = append(s.order, c.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*entity.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, notFound(id)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, status *constants.ContractStatus) ([]*entity.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Contract, 0, len(s.order))
	for _, id := range s.order {
		c := s.byID[id]
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*entity.Contract) error) (*entity.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[id]
	if !ok {
		return nil, notFound(id)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	s.byID[id] = next
	return next.Clone(), nil
}
