package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "first three", text: "Financial Risk Manager role", expected: []string{"financial", "risk", "manager"}},
		{name: "fewer than three", text: "Java", expected: []string{"java"}},
		{name: "punctuation trimmed", text: "(Senior) analyst, sales!", expected: []string{"senior", "analyst", "sales"}},
		{name: "bare punctuation counts toward limit", text: "- sales - lead", expected: []string{"sales"}},
		{name: "leading dash", text: "- risk analyst manager", expected: []string{"risk", "analyst"}},
		{name: "inner punctuation kept", text: "c++ developer", expected: []string{"c++", "developer"}},
		{name: "blank", text: "   ", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, keywordTokens(tt.text))
		})
	}
}

func TestMatchesAnyToken(t *testing.T) {
	assert.True(t, matchesAnyToken("risk,finance", []string{"financial", "risk"}))
	assert.True(t, matchesAnyToken("Finance, Banking", []string{"finance"}))
	assert.True(t, matchesAnyToken("teamwork", []string{"team"}), "substring match")
	assert.False(t, matchesAnyToken("personality", []string{"financial", "risk", "manager"}))
	assert.False(t, matchesAnyToken("", []string{"risk"}))
	assert.False(t, matchesAnyToken("risk", nil))
}
