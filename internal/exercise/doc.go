// Package exercise rewrites exercise regions in code.
//
// Authors mark regions with comment lines such as
//
//	#| begin_solution
//	answer = 42
//	#| end_solution
//	#| begin_placeholder
//	answer = ...
//	#| end_placeholder
//
// The comment leader may be "#", "//", "--" or "%". Solution mode keeps
// solution bodies and drops placeholders. Placeholder mode does the opposite
// and inserts a stub comment for solutions that have no placeholder. Marker
// lines never survive either mode, so transforming output again is a no-op.
package exercise
