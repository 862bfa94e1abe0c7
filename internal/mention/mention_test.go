package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	users := []Candidate{
		{ID: 1, DisplayName: "Jane Doe"},
		{ID: 2, DisplayName: "Bob"},
		{ID: 3, DisplayName: "bob"},
		{ID: 4, DisplayName: "Ünal Öz"},
	}

	cases := []struct {
		name string
		text string
		want []uint64
	}{
		{name: "multi-word and single", text: "Hello @Jane Doe and @Bob", want: []uint64{1, 2}},
		{name: "no at sign", text: "no at sign", want: []uint64{}},
		{name: "case insensitive", text: "ping @jane doe", want: []uint64{1}},
		{name: "duplicates removed", text: "@Bob @bob @BOB", want: []uint64{2}},
		{name: "unknown name", text: "hi @Alice", want: []uint64{}},
		{name: "partial name does not match", text: "hi @Jane", want: []uint64{}},
		{name: "punctuation ends the span", text: "thanks @Bob, see you", want: []uint64{2}},
		{name: "unicode letters", text: "merci @Ünal Öz!", want: []uint64{4}},
		{name: "bare at sign", text: "mail me @ home", want: []uint64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ElementsMatch(t, tc.want, Extract(tc.text, users))
		})
	}
}

func TestExtractWithoutUsers(t *testing.T) {
	assert.Empty(t, Extract("hello @Bob", nil))
}

func TestSpans(t *testing.T) {
	assert.Equal(t, []string{"Jane Doe and", "Bob"}, Spans("Hello @Jane Doe and @Bob"))
	assert.Nil(t, Spans("nothing here"))
}
