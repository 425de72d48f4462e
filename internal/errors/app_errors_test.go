package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewStorageError("failed to load table", errors.New("connection refused")),
			want: "[STORAGE] failed to load table: connection refused",
		},
		{
			name: "without cause",
			err:  NewNotFoundError("silver snapshot"),
			want: "[NOT_FOUND] silver snapshot not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write failed", cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("run aborted: %w", err)
	var appErr *AppError
	assert.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestIsType(t *testing.T) {
	err := NewParsingError("bad header", nil)

	assert.True(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(err, ErrTypeStorage))
	assert.True(t, IsType(fmt.Errorf("stage failed: %w", err), ErrTypeParsing))
	assert.False(t, IsType(errors.New("plain"), ErrTypeParsing))
	assert.False(t, IsType(nil, ErrTypeParsing))
}
