package build

import "errors"

// ErrCanceled is returned when the build context ends before all documents
// were processed. It wraps the context error.
var ErrCanceled = errors.New("courses: build canceled")
