package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/joseph-ayodele/contracts-parser/constants"
)

func TestParseFieldsStrict(t *testing.T) {
	reply := "Here you go:\n```json\n{\n  \"party_identification\": {\"name\": \"ACME Corp\"},\n  \"gaps\": []\n}\n```\nThanks!"
	fields, raw, err := ParseFields(reply, nil)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if !strings.HasPrefix(string(raw), "{") || !strings.HasSuffix(string(raw), "}") {
		t.Fatalf("raw should be the bare object, got %q", raw)
	}
	name, ok := fields[constants.FieldPartyIdentification].Get("name").Str()
	if !ok || name != "ACME Corp" {
		t.Fatalf("name = %q, %v", name, ok)
	}
}

func TestParseFieldsRepairs(t *testing.T) {
	tests := map[string]string{
		"trailing comma": `{"payment_structure": {"terms": "net 30"},}`,
		"missing brace":  `{"payment_structure": {"terms": "net 30"}`,
		"single quotes":  `{'payment_structure': {'terms': 'net 30'}}`,
	}
	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			fields, _, err := ParseFields(reply, nil)
			if err != nil {
				t.Fatalf("ParseFields: %v", err)
			}
			terms, _ := fields[constants.FieldPaymentStructure].Get("terms").Str()
			if terms != "net 30" {
				t.Fatalf("terms = %q", terms)
			}
		})
	}
}

func TestParseFieldsErrors(t *testing.T) {
	if _, _, err := ParseFields("   ", nil); !errors.Is(err, ErrNoJSONText) {
		t.Fatalf("blank reply: got %v", err)
	}
	if _, _, err := ParseFields("[1, 2, 3]", nil); !errors.Is(err, ErrNotJSONObject) {
		t.Fatalf("array reply: got %v", err)
	}
	if _, _, err := ParseFields("I could not find any contract.", nil); err == nil {
		t.Fatalf("expected error for prose reply")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(ExtractRequest{ContractText: "This Agreement is made...", Group: constants.GroupTerms})
	for _, want := range []string{
		"payment_structure, revenue_classification, service_level_agreements.",
		"'confidence_scores'",
		"'gaps'",
		"Return ONLY valid JSON.",
		"Contract text:\nThis Agreement is made...",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}
