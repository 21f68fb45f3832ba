// Package preview serves a built course over HTTP while the author edits it.
package preview
