package entity

import (
	"time"

	"github.com/joseph-ayodele/contracts-parser/constants"
)

// Contract is one uploaded contract and its processing job state.
type Contract struct {
	ID          string                   `json:"contract_id"`
	Status      constants.ContractStatus `json:"status"`
	Progress    int                      `json:"progress"`
	Data        *Document                `json:"data,omitempty"`
	Error       *string                  `json:"error,omitempty"`
	Filename    string                   `json:"filename"`
	FileKey     string                   `json:"file_key"`
	SizeBytes   int64                    `json:"size_bytes"`
	ContentHash string                   `json:"content_hash"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Score is nil until the contract has completed.
func (c *Contract) Score() *float64 {
	if c == nil || c.Data == nil {
		return nil
	}
	s := c.Data.Score
	return &s
}

// Clone returns a copy safe to hand out of a store. Data is shared: a
// Document is never mutated once attached to a contract.
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Error != nil {
		msg := *c.Error
		cp.Error = &msg
	}
	return &cp
}
