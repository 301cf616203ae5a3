package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "fetch with status",
			err:  NewFetchError("unexpected status", 404, nil),
			want: "fetch error (code 404): unexpected status",
		},
		{
			name: "parse with cause",
			err:  NewParseError("missing field", io.ErrUnexpectedEOF),
			want: "parse error: missing field: unexpected EOF",
		},
		{
			name: "persist without cause",
			err:  NewPersistError("disk full", nil),
			want: "persist error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestTypeOfWrapped(t *testing.T) {
	base := NewParseError("bad trace", nil)
	wrapped := fmt.Errorf("target A12345: %w", base)

	assert.Equal(t, ErrorTypeParse, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeParse))
	assert.False(t, Is(wrapped, ErrorTypeFetch))
	assert.Equal(t, ErrorType(""), TypeOf(io.EOF))
	assert.False(t, Is(nil, ErrorTypeParse))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewConfigurationError("roster missing", nil)))
	assert.False(t, IsFatal(NewFetchError("timeout", 0, nil)))
	assert.False(t, IsFatal(NewPersistError("rename", nil)))
	assert.False(t, IsFatal(io.EOF))
}

func TestUnwrapAndStatusCode(t *testing.T) {
	err := NewFetchError("connection failed", 0, io.ErrClosedPipe)
	assert.True(t, stderrors.Is(err, io.ErrClosedPipe))
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, 503, StatusCode(fmt.Errorf("wrap: %w", NewFetchError("server error", 503, nil))))
}
