package reddit

import "strings"

// ItemError is one {error_type, message} pair from a structured remote
// submission failure (spec §6).
type ItemError struct {
	ErrorType string
	Message   string
}

// SubmissionError wraps one or more ItemError values returned by a single
// submit call. The Dispatcher formats it line-per-item into the Queue
// error column (spec §4.2): "-> <type>: <msg>" per line.
type SubmissionError struct {
	Items []ItemError
}

func (e *SubmissionError) Error() string {
	var b strings.Builder
	for i, it := range e.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("-> ")
		b.WriteString(it.ErrorType)
		b.WriteString(": ")
		b.WriteString(it.Message)
	}
	return b.String()
}

// Format renders err as the Dispatcher would persist it into the error
// column: a SubmissionError renders its structured items line-per-item;
// any other error renders as a single "-> internal: <msg>" line so the
// stored text always carries the same "-> type: message" shape regardless
// of where the failure came from.
func Format(err error) string {
	if se, ok := err.(*SubmissionError); ok {
		return se.Error()
	}
	return "-> internal: " + err.Error()
}
