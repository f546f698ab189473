package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testSchema = Schema{
	"runs": {"id", "seq", "mode", "network_hash", "answer"},
}

func TestValidate_ValidSelect(t *testing.T) {
	q := Select{
		From:    "runs",
		Columns: []string{"id", "answer"},
		Filter: And{Predicates: []Predicate{
			Equals{Field: "mode", Value: "period"},
			HasPrefix{Field: "network_hash", Prefix: "ab"},
			&Equals{Field: "answer", Value: int64(8)},
		}},
		Last: 3,
	}

	result := Validate(q, testSchema)
	assert.True(t, result.Valid, result.Problems)
	assert.Empty(t, result.Problems)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	q := &Select{
		From:    "runs",
		Columns: []string{"id", "colour"},
		Filter: And{Predicates: []Predicate{
			Equals{Field: "answer", Value: 8.5},
			HasPrefix{Field: "hash", Prefix: "ab"},
			nil,
		}},
		Last: -1,
	}

	result := Validate(q, testSchema)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		`unknown column "colour"`,
		"last must not be negative: -1",
		"field answer compared to unsupported value float64",
		`unknown column "hash"`,
		"nil predicate",
	}, result.Problems)
}

func TestValidate_UnknownTable(t *testing.T) {
	result := Validate(Select{From: "flows", Columns: []string{"id"}}, testSchema)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{`unknown table "flows"`}, result.Problems)
}

func TestValidate_NilAndEmpty(t *testing.T) {
	assert.False(t, Validate(nil, testSchema).Valid)
	assert.False(t, Validate((*Select)(nil), testSchema).Valid)

	result := Validate(Select{From: "runs"}, testSchema)
	assert.Equal(t, []string{"select from runs lists no columns"}, result.Problems)
}

func TestWhere(t *testing.T) {
	mode := Equals{Field: "mode", Value: "fixed"}
	hash := HasPrefix{Field: "network_hash", Prefix: "ab"}

	tests := []struct {
		name  string
		preds []Predicate
		want  Predicate
	}{
		{"nothing", nil, nil},
		{"all_nil", []Predicate{nil, nil}, nil},
		{"single", []Predicate{nil, mode}, mode},
		{"several", []Predicate{mode, nil, hash}, And{Predicates: []Predicate{mode, hash}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Where(tt.preds...))
		})
	}
}
