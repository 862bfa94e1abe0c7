package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "not found", err: NotFound("thread", 7), want: KindNotFound},
		{name: "wrapped forbidden", err: fmt.Errorf("delete thread: %w", Forbidden("not the author")), want: KindForbidden},
		{name: "duplicate is invalid", err: Duplicate("channel", "slug", "general"), want: KindInvalid},
		{name: "plain error", err: errors.New("boom"), want: KindUnknown},
		{name: "nil", err: nil, want: KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("load: %w", NotFound("poll", 3))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))

	invalid := Invalid("option_index", "out of range")
	assert.True(t, errors.Is(invalid, ErrInvalid))
	assert.True(t, errors.Is(invalid, &Error{Kind: KindInvalid, Field: "option_index"}))
	assert.False(t, errors.Is(invalid, &Error{Kind: KindInvalid, Field: "title"}))
}

func TestErrorContext(t *testing.T) {
	e, ok := As(NotFound("comment", uint64(42)))
	require.True(t, ok)
	assert.Equal(t, "comment", e.Entity)
	assert.Equal(t, uint64(42), e.ID)
	assert.Equal(t, "NOT_FOUND: comment 42 not found", e.Error())

	cause := errors.New("connection reset")
	wrapped := Wrap(KindUnknown, "tally poll", cause)
	assert.ErrorIs(t, wrapped, cause)
}
