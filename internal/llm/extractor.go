package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

// GroupExtractor implements FieldExtractor on top of a chat model.
type GroupExtractor struct {
	chat   ChatCompleter
	logger *slog.Logger
}

func NewGroupExtractor(chat ChatCompleter, logger *slog.Logger) *GroupExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupExtractor{chat: chat, logger: logger}
}

func (g *GroupExtractor) ExtractFields(ctx context.Context, req ExtractRequest) (entity.Fields, []byte, error) {
	start := time.Now()
	cid := common.ContractIDFromContext(ctx)
	prompt := BuildPrompt(req)
	g.logger.Debug("llm.extract.start",
		"contract_id", cid,
		"group", req.Group.Name,
		"prompt_len", len(prompt),
		"text_len", len(req.ContractText),
	)

	reply, err := g.chat.Complete(ctx, prompt)
	if err != nil {
		g.logger.Error("llm.extract.call_failed", "contract_id", cid, "group", req.Group.Name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}

	fields, raw, err := ParseFields(reply, g.logger)
	if err != nil {
		g.logger.Error("llm.extract.parse_failed", "contract_id", cid, "group", req.Group.Name, "error", err,
			"reply_len", len(reply))
		return nil, raw, err
	}

	g.logger.Info("llm.extract.ok",
		"contract_id", cid,
		"group", req.Group.Name,
		"keys", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, raw, nil
}
