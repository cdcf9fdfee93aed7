package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func questionSchema() *Schema {
	return &Schema{
		Name:        "test-quiz-question",
		Description: "A quiz question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question_text":  map[string]any{"type": "string", "minLength": 10},
				"type":           map[string]any{"type": "string", "enum": []any{"multiple_choice", "true_false", "short_answer"}},
				"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"correct_answer": map[string]any{"type": "string"},
			},
			"required":             []any{"question_text", "type", "correct_answer"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"multiple choice", `{"question_text":"Which gas do plants absorb?","type":"multiple_choice","options":["Oxygen","Carbon dioxide","Helium","Neon"],"correct_answer":"B"}`, ""},
		{"true false without options", `{"question_text":"Water boils at 100 C at sea level.","type":"true_false","correct_answer":"True"}`, ""},
		{"missing answer", `{"question_text":"Which gas do plants absorb?","type":"multiple_choice"}`, "does not match"},
		{"unknown type", `{"question_text":"Which gas do plants absorb?","type":"essay","correct_answer":"CO2"}`, "does not match"},
		{"options not strings", `{"question_text":"Which gas do plants absorb?","type":"multiple_choice","options":[1,2],"correct_answer":"A"}`, "does not match"},
		{"extra field", `{"question_text":"Which gas do plants absorb?","type":"short_answer","correct_answer":"CO2","hint":"air"}`, "does not match"},
		{"question too short", `{"question_text":"Why?","type":"short_answer","correct_answer":"Because"}`, "does not match"},
		{"plain text", `Question: Which gas do plants absorb?`, "not JSON"},
		{"empty", ``, "not JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(questionSchema(), json.RawMessage(tt.raw))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("got %T (%v), want *ErrInvalidResponse", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
			if string(inv.Content) != tt.raw {
				t.Errorf("got content %q, want the raw completion", inv.Content)
			}
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsText(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage("Question: free text")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateResponse_SchemaCompiledOnce(t *testing.T) {
	s := questionSchema()
	s.Name = "test-compiled-once"
	raw := json.RawMessage(`{"question_text":"Name the largest planet.","type":"short_answer","correct_answer":"Jupiter"}`)
	for range 3 {
		if err := validateResponse(s, raw); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	first, err := compiledSchemas.get(s)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := compiledSchemas.get(s)
	if first != again {
		t.Error("schema recompiled on second use")
	}
}
