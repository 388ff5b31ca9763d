package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	fields := ParseSort([]string{"+name", "-created_at", "email", ""})
	assert.Equal(t, []SortField{
		{Field: "name", Desc: false},
		{Field: "created_at", Desc: true},
		{Field: "email", Desc: false},
	}, fields)
}

func TestParseSort_Empty(t *testing.T) {
	assert.Empty(t, ParseSort(nil))
	assert.Empty(t, ParseSort([]string{"-", "+"}))
}
