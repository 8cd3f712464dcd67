package intervals

// Result is either a decoded JSON payload or a Failure, never both.
type Result struct {
	payload any
	failure *Failure
}

// Success wraps a decoded payload
func Success(payload any) Result {
	return Result{payload: payload}
}

// Fail wraps a failure record
func Fail(f *Failure) Result {
	return Result{failure: f}
}

// OK reports whether the request succeeded
func (r Result) OK() bool {
	return r.failure == nil
}

// Payload returns the decoded JSON body and true on success
func (r Result) Payload() (any, bool) {
	if r.failure != nil {
		return nil, false
	}
	return r.payload, true
}

// Failure returns the failure record, or nil on success
func (r Result) Failure() *Failure {
	return r.failure
}
