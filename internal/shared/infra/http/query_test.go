package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/crudlab/internal/shared/domain"
)

func TestParseQuery_ReservedKeys(t *testing.T) {
	q, err := ParseQuery("offset=10&limit=25&sort=-created_at&sort=%2Bname&operator=AND")
	require.NoError(t, err)

	assert.Equal(t, 10, q.Offset)
	assert.Equal(t, 25, q.Limit)
	assert.Equal(t, []string{"-created_at", "+name"}, q.Sort)
	assert.Equal(t, domain.OpAnd, q.Operator)
	assert.Empty(t, q.Filters)
}

func TestParseQuery_FilterOrderPreserved(t *testing.T) {
	q, err := ParseQuery("role=admin&name__ilike=ada&liters__gt=5")
	require.NoError(t, err)

	require.Len(t, q.Filters, 3)
	assert.Equal(t, "role", q.Filters[0].Key)
	assert.Equal(t, "name__ilike", q.Filters[1].Key)
	assert.Equal(t, "liters__gt", q.Filters[2].Key)
	assert.Equal(t, "admin", q.Filters[0].Value)
}

func TestParseQuery_ListValues(t *testing.T) {
	q, err := ParseQuery("status__in=requested,scheduled&role__not_in=admin")
	require.NoError(t, err)

	require.Len(t, q.Filters, 2)
	assert.Equal(t, []any{"requested", "scheduled"}, q.Filters[0].Value)
	assert.Equal(t, []any{"admin"}, q.Filters[1].Value)
}

func TestParseQuery_BooleanValues(t *testing.T) {
	q, err := ParseQuery("collected_at__isnull=true&note__isempty=false")
	require.NoError(t, err)

	require.Len(t, q.Filters, 2)
	assert.Equal(t, true, q.Filters[0].Value)
	assert.Equal(t, false, q.Filters[1].Value)

	_, err = ParseQuery("collected_at__isnull=maybe")
	assert.Error(t, err)
}

func TestParseQuery_JoinQualifiedKeysPassThrough(t *testing.T) {
	q, err := ParseQuery("user___email=ada%40example.org")
	require.NoError(t, err)

	require.Len(t, q.Filters, 1)
	assert.Equal(t, "user___email", q.Filters[0].Key)
	assert.Equal(t, "ada@example.org", q.Filters[0].Value)
}

func TestParseQuery_Invalid(t *testing.T) {
	_, err := ParseQuery("offset=abc")
	assert.Error(t, err)

	_, err = ParseQuery("operator=xor")
	assert.Error(t, err)
}

func TestParseQuery_Empty(t *testing.T) {
	q, err := ParseQuery("")
	require.NoError(t, err)
	assert.Zero(t, q.Offset)
	assert.Zero(t, q.Limit)
	assert.Empty(t, q.Filters)
}
