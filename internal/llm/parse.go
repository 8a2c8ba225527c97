package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

var (
	ErrNoContent     = errors.New("no response from LLM")
	ErrNoJSONText    = errors.New("no response text to parse from LLM")
	ErrNotJSONObject = errors.New("LLM response is not a JSON object")
)

// first '{' through last '}', across lines
var reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseFields pulls the JSON object out of a model reply. Strict decoding is
// tried first; on failure the text is repaired and decoded once more.
func ParseFields(text string, logger *slog.Logger) (entity.Fields, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrNoJSONText
	}
	if m := reJSONObject.FindString(text); m != "" {
		text = m
	}

	var raw any
	err := json.Unmarshal([]byte(text), &raw)
	if err != nil {
		logger.Warn("llm.parse.invalid_json", "error", err, "bytes", len(text))
		fixed, rErr := jsonrepair.JSONRepair(text)
		if rErr != nil {
			return nil, nil, fmt.Errorf("repair llm json: %w", rErr)
		}
		if err := json.Unmarshal([]byte(fixed), &raw); err != nil {
			return nil, nil, fmt.Errorf("decode repaired llm json: %w", err)
		}
		logger.Info("llm.parse.repaired", "bytes_before", len(text), "bytes_after", len(fixed))
		text = fixed
	}

	fields, ok := entity.FieldsFromAny(raw)
	if !ok {
		return nil, []byte(text), ErrNotJSONObject
	}
	return fields, []byte(text), nil
}
