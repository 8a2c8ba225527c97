package merge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/contracts-parser/constants"
)

const numericPattern = `^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?\s*$`

// BuildDocumentJSONSchema describes a merged extraction document: every
// category is an object or null, confidences are numbers (or numeric
// strings) and gaps are strings. Unknown keys are allowed.
func BuildDocumentJSONSchema() map[string]any {
	props := map[string]any{}
	for _, k := range constants.CategoryFields {
		props[k] = map[string]any{"type": []any{"object", "null"}}
	}
	props[constants.FieldConfidenceScores] = map[string]any{
		"type": []any{"object", "null"},
		"additionalProperties": map[string]any{
			"anyOf": []any{
				map[string]any{"type": "number"},
				map[string]any{"type": "string", "pattern": numericPattern},
			},
		},
	}
	props[constants.FieldGaps] = map[string]any{
		"type":  []any{"array", "null"},
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("document.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
