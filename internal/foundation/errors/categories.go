package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig covers global and per-document configuration errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryTree covers structural violations of the content hierarchy.
	CategoryTree      ErrorCategory = "tree"
	CategoryTransform ErrorCategory = "transform"
	CategoryRender    ErrorCategory = "render"

	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorKind is the specific failure within a category.
type ErrorKind string

const (
	KindNone ErrorKind = ""

	KindInvalidSchema        ErrorKind = "InvalidSchema"
	KindMissingRequiredField ErrorKind = "MissingRequiredField"
	KindUnknownProfile       ErrorKind = "UnknownProfile"

	KindMissingIndex      ErrorKind = "MissingIndex"
	KindDepthExceeded     ErrorKind = "DepthExceeded"
	KindMisplacedDocument ErrorKind = "MisplacedDocument"

	KindUnbalancedMarker ErrorKind = "UnbalancedMarker"

	KindUnknownShortcode ErrorKind = "UnknownShortcode"
	KindMissingArgument  ErrorKind = "MissingArgument"
	KindTemplate         ErrorKind = "Template"
	KindMath             ErrorKind = "Math"

	KindDocumentsFailed ErrorKind = "DocumentsFailed"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityError   ErrorSeverity = "error"   // Fails the current document or subtree
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext, len(c)+len(other))
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
