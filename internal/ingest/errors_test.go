package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeadvisor/internal/eventlog"
	"github.com/usestring/storeadvisor/internal/validate"
	"github.com/usestring/storeadvisor/pkg/analyzer"
	"github.com/usestring/storeadvisor/pkg/contenttype"
)

func TestWrap(t *testing.T) {
	_, parseErr := analyzer.Decode([]byte(`{"a":`))
	require.Error(t, parseErr)
	_, structErr := analyzer.Analyze(`"text"`)
	require.Error(t, structErr)

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"empty", ErrEmptyUpload, ErrCodeInvalidInput},
		{"records path", fmt.Errorf("%w: %w", ErrRecordsPath, errors.New("x")), ErrCodeInvalidInput},
		{"parse", parseErr, ErrCodeParseError},
		{"structure", structErr, ErrCodeUnsupportedStructure},
		{"drift", &ValidationError{Report: &validate.Report{Checked: 2, Invalid: 1}}, ErrCodeSchemaDrift},
		{"too large", fmt.Errorf("%w: 10 bytes", ErrTooLarge), ErrCodeTooLarge},
		{"media", fmt.Errorf("%w: x", contenttype.ErrNotJSON), ErrCodeUnsupportedMedia},
		{"store", &StoreError{Backend: "mongo", Err: errors.New("down")}, ErrCodeStoreError},
		{"event", fmt.Errorf("%w: 1", eventlog.ErrNotFound), ErrCodeNotFound},
		{"file", fmt.Errorf("open: %w", os.ErrNotExist), ErrCodeNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"other", errors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coded := Wrap(tt.err)
			require.NotNil(t, coded)
			assert.Equal(t, tt.code, coded.Code)
			assert.ErrorIs(t, coded, tt.err)
		})
	}
}

func TestWrap_Passthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	orig := ErrNotFound("event", "abc")
	coded := Wrap(fmt.Errorf("lookup: %w", orig))
	assert.Same(t, orig, error(coded))
	assert.EqualError(t, coded, "NOT_FOUND: event not found: abc")
}

func TestCodedError_Error(t *testing.T) {
	cause := errors.New("down")
	assert.Equal(t, "STORE_ERROR: store mongo: down",
		Wrap(&StoreError{Backend: "mongo", Err: cause}).Error())
	assert.Equal(t, "INVALID_INPUT: limit must be positive",
		ErrInvalidInput("limit must be positive").Error())
	assert.Equal(t, "X: msg: down", (&CodedError{Code: "X", Message: "msg", Cause: cause}).Error())
}
