// Package errors provides the classified error primitives used across the
// courses build tool.
//
// Every failure that reaches a user is a ClassifiedError carrying a broad
// category (config, tree, transform, render, ...), a specific kind
// (InvalidSchema, MissingIndex, UnbalancedMarker, ...), a severity and a
// free-form context map. Errors are constructed with the fluent builder:
//
//	err := errors.TransformError("unbalanced placeholder marker").
//		WithKind(errors.KindUnbalancedMarker).
//		WithContext("line", 12).
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
