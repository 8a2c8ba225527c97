package llm

import (
	"context"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

type ExtractRequest struct {
	ContractText string
	Group        constants.FieldGroup
}

// FieldExtractor is the interface the pipeline depends on: one call per field group.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (entity.Fields, []byte /*rawJSON*/, error)
}

// ChatCompleter sends one user prompt to a chat model and returns the reply text.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
