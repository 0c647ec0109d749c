// Package errors provides structured, actionable errors for the scaffold CLI,
// the build pipeline and the application shell.
//
// Every error carries a code (e.g. "E201") registered with a category, a short
// message and a longer explanation. Callers attach detail, a suggestion and a
// wrapped cause with the builder methods:
//
//	err := errors.New("E101").
//	    WithDetail("Failed to parse scaffold.json: unexpected EOF").
//	    WithSuggestion("Check that scaffold.json is valid JSON")
//
//	fmt.Print(err.Format())
//	// Output:
//	// ERROR E101: Invalid configuration file
//	//
//	//   Failed to parse scaffold.json: unexpected EOF
//	//
//	//   Hint: Check that scaffold.json is valid JSON
//
// # Code ranges
//
//   - E1xx: configuration
//   - E2xx: build (bundler, templates, manifest)
//   - E3xx: routing and the application shell
//   - E4xx: deploy
package errors
