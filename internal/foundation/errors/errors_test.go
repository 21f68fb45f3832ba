package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithKind(KindInvalidSchema).
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, KindInvalidSchema, err.Kind())
		assert.True(t, err.IsFatal())
		assert.Equal(t, "[config:InvalidSchema] invalid configuration", err.Error())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "config.yml", file)
	})

	t.Run("Wrapped chain is searchable", func(t *testing.T) {
		cause := stderrors.New("yaml: line 3")
		err := WrapError(cause, CategoryConfig, "parse config").WithKind(KindInvalidSchema).Build()
		wrapped := fmt.Errorf("load: %w", err)

		assert.True(t, IsClassified(wrapped))
		assert.True(t, HasCategory(wrapped, CategoryConfig))
		assert.True(t, HasKind(wrapped, KindInvalidSchema))
		assert.ErrorIs(t, wrapped, cause)
		assert.Equal(t, KindInvalidSchema, GetKind(wrapped))
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := stderrors.New("plain")
		assert.Equal(t, CategoryInternal, GetCategory(err))
		assert.Equal(t, KindNone, GetKind(err))
	})

	t.Run("Is matches category and kind", func(t *testing.T) {
		err := TransformError("unbalanced").Build()
		assert.ErrorIs(t, err, &ClassifiedError{category: CategoryTransform, kind: KindUnbalancedMarker})
		assert.NotErrorIs(t, err, &ClassifiedError{category: CategoryRender, kind: KindUnbalancedMarker})
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := RenderError("unknown shortcode").WithKind(KindUnknownShortcode).Build()
		withPath := base.WithContext("path", "a.md")

		_, ok := base.Context().Get("path")
		assert.False(t, ok)
		p, _ := withPath.Context().GetString("path")
		assert.Equal(t, "a.md", p)
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
	}{
		{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal},
		{"ValidationError", ValidationError("x"), CategoryValidation, SeverityFatal},
		{"TreeError", TreeError("x"), CategoryTree, SeverityError},
		{"TransformError", TransformError("x"), CategoryTransform, SeverityError},
		{"RenderError", RenderError("x"), CategoryRender, SeverityError},
		{"BuildError", BuildError("x"), CategoryBuild, SeverityError},
		{"FileSystemError", FileSystemError("x"), CategoryFileSystem, SeverityError},
		{"InternalError", InternalError("x"), CategoryInternal, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.severity, err.Severity())
		})
	}
}

func TestErrorContextMerge(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	v1, _ := merged.GetString("key1")
	v2, _ := merged.GetString("key2")
	shared, _ := merged.GetString("shared")
	assert.Equal(t, "value1", v1)
	assert.Equal(t, "value2", v2)
	assert.Equal(t, "overridden", shared)
}
