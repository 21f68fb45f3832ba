package errors

import (
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").WithKind(KindInvalidSchema).Build(), 7},
		{"documents failed", BuildError("2 documents failed").WithKind(KindDocumentsFailed).Build(), 11},
		{"tree", TreeError("missing index").WithKind(KindMissingIndex).Build(), 11},
		{"filesystem", FileSystemError("disk full").Build(), 12},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified", stderrors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	cause := stderrors.New("yaml: unmarshal errors")
	err := WrapError(cause, CategoryConfig, "invalid config.yml").WithKind(KindInvalidSchema).Build()

	assert.Equal(t, "Error: invalid config.yml: yaml: unmarshal errors", quiet.FormatError(err))
	assert.Equal(t, "Error: [config:InvalidSchema] invalid config.yml: yaml: unmarshal errors", verbose.FormatError(err))
	assert.Equal(t, "Error: plain", quiet.FormatError(stderrors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}
