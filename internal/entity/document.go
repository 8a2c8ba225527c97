package entity

import (
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/contracts-parser/constants"
)

// Document is the merged, scored extraction result for one contract.
// It serializes as a single flat JSON object.
type Document struct {
	Fields           Fields             // category keys plus any extra raw keys
	ConfidenceScores map[string]float64 // scoring category (or model-reported key) -> confidence
	Gaps             []string
	Score            float64
}

// Category returns the value stored under a category key, null when absent.
func (d *Document) Category(name string) Value {
	if d == nil {
		return Null()
	}
	return d.Fields[name]
}

// Categories projects the six category keys, filling absent ones with null.
func (d *Document) Categories() map[string]Value {
	out := make(map[string]Value, len(constants.CategoryFields))
	for _, k := range constants.CategoryFields {
		out[k] = d.Category(k)
	}
	return out
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+3)
	for k, v := range d.Fields {
		out[k] = v
	}
	conf := d.ConfidenceScores
	if conf == nil {
		conf = map[string]float64{}
	}
	gaps := d.Gaps
	if gaps == nil {
		gaps = []string{}
	}
	out[constants.FieldConfidenceScores] = conf
	out[constants.FieldGaps] = gaps
	out[constants.FieldScore] = d.Score
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	doc := Document{Fields: Fields{}, ConfidenceScores: map[string]float64{}, Gaps: []string{}}
	for k, msg := range raw {
		switch k {
		case constants.FieldConfidenceScores:
			if err := json.Unmarshal(msg, &doc.ConfidenceScores); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			if doc.ConfidenceScores == nil {
				doc.ConfidenceScores = map[string]float64{}
			}
		case constants.FieldGaps:
			if err := json.Unmarshal(msg, &doc.Gaps); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			if doc.Gaps == nil {
				doc.Gaps = []string{}
			}
		case constants.FieldScore:
			if err := json.Unmarshal(msg, &doc.Score); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
		default:
			var v Value
			if err := json.Unmarshal(msg, &v); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			doc.Fields[k] = v
		}
	}
	*d = doc
	return nil
}
