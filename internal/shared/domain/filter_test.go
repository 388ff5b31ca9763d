package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCondition_BareKeyIsEquality(t *testing.T) {
	cond, err := ParseCondition("name", "Ada")
	assert.NoError(t, err)
	assert.Equal(t, Condition{Field: "name", Op: OpEq, Value: "Ada"}, cond)
}

func TestParseCondition_Operators(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  Condition
	}{
		{
			name:  "neq",
			key:   "status__neq",
			value: "cancelled",
			want:  Condition{Field: "status", Op: OpNeq, Value: "cancelled"},
		},
		{
			name:  "gt",
			key:   "liters__gt",
			value: 5,
			want:  Condition{Field: "liters", Op: OpGt, Value: 5},
		},
		{
			name:  "gte",
			key:   "liters__gte",
			value: 5,
			want:  Condition{Field: "liters", Op: OpGte, Value: 5},
		},
		{
			name:  "lt",
			key:   "liters__lt",
			value: 5,
			want:  Condition{Field: "liters", Op: OpLt, Value: 5},
		},
		{
			name:  "lte",
			key:   "liters__lte",
			value: 5,
			want:  Condition{Field: "liters", Op: OpLte, Value: 5},
		},
		{
			name:  "in",
			key:   "status__in",
			value: []any{"requested", "scheduled"},
			want:  Condition{Field: "status", Op: OpIn, Value: []any{"requested", "scheduled"}},
		},
		{
			name:  "not_in",
			key:   "status__not_in",
			value: []any{"cancelled"},
			want:  Condition{Field: "status", Op: OpNotIn, Value: []any{"cancelled"}},
		},
		{
			name:  "isnull true",
			key:   "collected_at__isnull",
			value: true,
			want:  Condition{Field: "collected_at", Op: OpIsNull},
		},
		{
			name:  "isnull false",
			key:   "collected_at__isnull",
			value: false,
			want:  Condition{Field: "collected_at", Op: OpIsNotNull},
		},
		{
			name:  "isempty true",
			key:   "note__isempty",
			value: true,
			want:  Condition{Field: "note", Op: OpEq, Value: ""},
		},
		{
			name:  "isempty false",
			key:   "note__isempty",
			value: false,
			want:  Condition{Field: "note", Op: OpNeq, Value: ""},
		},
		{
			name:  "like wraps wildcards",
			key:   "name__like",
			value: "ada",
			want:  Condition{Field: "name", Op: OpLike, Value: "%ada%"},
		},
		{
			name:  "ilike wraps wildcards",
			key:   "name__ilike",
			value: "ada",
			want:  Condition{Field: "name", Op: OpILike, Value: "%ada%"},
		},
		{
			name:  "not",
			key:   "role__not",
			value: nil,
			want:  Condition{Field: "role", Op: OpIsNot, Value: nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseCondition(tt.key, tt.value)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, cond)
		})
	}
}

func TestParseCondition_WildcardWrappingIsIdempotent(t *testing.T) {
	cond, err := ParseCondition("name__like", "%ada%")
	assert.NoError(t, err)
	assert.Equal(t, "%ada%", cond.Value)

	cond, err = ParseCondition("name__like", "ada%")
	assert.NoError(t, err)
	assert.Equal(t, "ada%", cond.Value)
}

func TestParseCondition_TypedSlices(t *testing.T) {
	cond, err := ParseCondition("status__in", []string{"requested", "scheduled"})
	assert.NoError(t, err)
	assert.Equal(t, []any{"requested", "scheduled"}, cond.Value)
}

func TestParseCondition_JoinQualified(t *testing.T) {
	cond, err := ParseCondition("pickups___liters__gt", 10)
	assert.NoError(t, err)
	assert.Equal(t, Condition{Relation: "pickups", Field: "liters", Op: OpGt, Value: 10}, cond)

	// Without an operator suffix the related field is an equality.
	cond, err = ParseCondition("user___email", "ada@example.org")
	assert.NoError(t, err)
	assert.Equal(t, Condition{Relation: "user", Field: "email", Op: OpEq, Value: "ada@example.org"}, cond)
}

func TestParseCondition_UnknownOperator(t *testing.T) {
	_, err := ParseCondition("name__regex", "a.*")
	assert.ErrorIs(t, err, ErrInvalidFilterOperator)
}

func TestParseCondition_InRequiresSequence(t *testing.T) {
	_, err := ParseCondition("status__in", "requested")
	assert.ErrorIs(t, err, ErrInvalidFilterOperator)
}
