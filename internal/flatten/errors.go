package flatten

import "fmt"

// RecordError reports that a single record failed to flatten. It is always
// absorbed by the Builder (logged, record skipped) and never escapes a
// build.
type RecordError struct {
	Kind  Kind
	Cause any
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("flatten %s record: %v", e.Kind, e.Cause)
}
