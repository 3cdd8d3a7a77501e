package logs

// Span identifies one traced unit of work, threaded through a
// context.Context so nested spans can record their parent/creator.
type Span string

type spanKeyType struct{}

// SpanKey is the context key a Span is stored under.
var SpanKey spanKeyType
