// Package errors provides the coded error registry used by the reactive
// runtime.
//
// Every runtime failure the reactive core reports (a cleanup callback that
// panicked, an effect cascade that ran away) is described by a short code
// that maps to a category, a one-line message and a longer explanation:
//
//	err := errors.New(errors.CodeCleanupPanic).
//	    WithDetail("effect 12 (ticker)").
//	    Wrap(cause)
//
//	fmt.Println(err.Error())
//	// R001: cleanup callback panicked: boom
//
//	fmt.Println(err.Format())
//	// ERROR R001: cleanup callback panicked
//	//
//	//   effect 12 (ticker)
//	//
//	//   Hint: Cleanup callbacks run in isolation; ...
package errors
