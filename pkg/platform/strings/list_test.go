package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "only whitespace", input: "   ", expected: nil},
		{name: "single broker", input: "k1:9092", expected: []string{"k1:9092"}},
		{name: "trims and drops empties", input: " k1:9092 ,, k2:9092 ", expected: []string{"k1:9092", "k2:9092"}},
		{name: "removes duplicates keeping first", input: "k2:9092,k1:9092,k2:9092", expected: []string{"k2:9092", "k1:9092"}},
		{name: "only separators", input: ",,,", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Equal(t, []string{}, DedupeAndTrim([]string{}))
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}))
}
