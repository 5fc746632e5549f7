package fsck

import "fmt"

// Violation is one inconsistency, with enough context in the message to
// locate the offending structure.
type Violation struct {
	Msg string
}

func (v Violation) String() string { return v.Msg }

// Report accumulates every violation found in one pass; no finding stops
// the remaining checks.
type Report struct {
	Violations []Violation
}

func (r *Report) addf(format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{Msg: fmt.Sprintf(format, args...)})
}

// Count is the number of inconsistencies found.
func (r *Report) Count() int { return len(r.Violations) }

// OK reports whether the image is consistent.
func (r *Report) OK() bool { return len(r.Violations) == 0 }
