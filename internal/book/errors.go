package book

import "fmt"

// ValidationError reports a structural problem with a collection or one of
// its items. Compilation of the whole collection aborts on the first one;
// there is no partial output.
type ValidationError struct {
	// Index is the insertion index of the offending item, 0 when the
	// error concerns the collection itself.
	Index int
	// Field names the offending field, "" when not field-specific.
	Field string
	// Msg describes the problem.
	Msg string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Index > 0 && e.Field != "":
		return fmt.Sprintf("item %d, field %q: %s", e.Index, e.Field, e.Msg)
	case e.Index > 0:
		return fmt.Sprintf("item %d: %s", e.Index, e.Msg)
	default:
		return e.Msg
	}
}
