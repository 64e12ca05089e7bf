package notifications

// Outcome tags the result of a store operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Result is returned by every store operation instead of an error.
// Local state is mutated only when Outcome is OutcomeSuccess, except for
// mark-all, where confirmed marks are applied even if others failed.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
	Message string  `json:"error,omitempty"`
	Marked  int     `json:"marked"`
	Failed  int     `json:"failed"`
}

// Success builds a successful result.
func Success(marked int) Result {
	return Result{Outcome: OutcomeSuccess, Marked: marked}
}

// Failure builds a failed result.
func Failure(err error) Result {
	r := Result{Outcome: OutcomeFailure, Err: err}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Outcome == OutcomeSuccess }
