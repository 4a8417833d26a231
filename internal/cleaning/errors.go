package cleaning

import (
	"fmt"
	"strings"
)

// maxSamples bounds how many offending values a CoercionError carries.
const maxSamples = 5

// CoercionError reports a numeric column holding values that are not numbers at all.
type CoercionError struct {
	Column  string
	Count   int
	Samples []string
}

func (e *CoercionError) Error() string {
	quoted := make([]string, len(e.Samples))
	for i, s := range e.Samples {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("failed to coerce column %s: %d invalid value(s), e.g. [%s]",
		e.Column, e.Count, strings.Join(quoted, ", "))
}

func (e *CoercionError) add(value string) {
	e.Count++
	if len(e.Samples) < maxSamples {
		e.Samples = append(e.Samples, value)
	}
}

// ValidationError reports a broken invariant in the cleaned output. It points at
// a defect in the pipeline rather than at bad input.
type ValidationError struct {
	Check  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation %s failed: %s", e.Check, e.Detail)
}
