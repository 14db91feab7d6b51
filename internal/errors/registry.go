package errors

// Registered error codes.
const (
	CodeCleanupPanic = "R001"
	CodeCascade      = "R002"
	CodeDisposed     = "R003"
	CodeHandlerPanic = "R004"
)

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	CodeCleanupPanic: {
		Category:   CategoryCleanup,
		Message:    "cleanup callback panicked",
		Suggestion: "Cleanup callbacks run in isolation; the remaining callbacks still ran. Recover inside the callback if the failure is expected.",
	},
	CodeCascade: {
		Category:   CategoryCascade,
		Message:    "effect cascade exceeded maximum run depth",
		Suggestion: "An effect is probably writing a cell it also reads. Read it with Peek or move the write out of the effect.",
	},
	CodeDisposed: {
		Category:   CategoryLifetime,
		Message:    "observer already disposed",
		Suggestion: "Stop and Dispose are terminal; create a new effect or scope instead of reusing the old handle.",
	},
	CodeHandlerPanic: {
		Category:   CategoryBroker,
		Message:    "event handler panicked",
		Suggestion: "Handlers run in isolation; the remaining subscribers still received the event.",
	},
}
