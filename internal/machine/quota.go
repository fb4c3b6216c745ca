package machine

// quota counts executed instructions against a limit.
//
// A limit of zero or less disables the quota.
type quota struct {
	limit   int
	current int
}

func newQuota(limit int) *quota {
	return &quota{limit: limit}
}

// check records one step and fails once the limit is passed.
func (q *quota) check() error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &StepsExceededError{Steps: q.current, Limit: q.limit}
	}
	return nil
}
