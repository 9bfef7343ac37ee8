package model

import "fmt"

type Outcome int

const (
	OUT_ACCEPTED Outcome = iota
	OUT_RATE_LIMITED
	OUT_TRANSPORT_ERROR
	OUT_SERVER_REJECTED
)

func (o Outcome) String() string {
	switch o {
	case OUT_ACCEPTED:
		return "accepted"
	case OUT_RATE_LIMITED:
		return "rate_limited"
	case OUT_TRANSPORT_ERROR:
		return "transport_error"
	case OUT_SERVER_REJECTED:
		return "server_rejected"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// result of one submit call
//   - StatusCode: only for OUT_SERVER_REJECTED (and 200 for OUT_ACCEPTED)
//   - Detail: only for OUT_TRANSPORT_ERROR
type SubmissionResult struct {
	Outcome    Outcome
	StatusCode int
	Detail     error
}

func Accepted() SubmissionResult {
	return SubmissionResult{Outcome: OUT_ACCEPTED, StatusCode: 200}
}

func RateLimited() SubmissionResult {
	return SubmissionResult{Outcome: OUT_RATE_LIMITED}
}

func TransportError(detail error) SubmissionResult {
	return SubmissionResult{Outcome: OUT_TRANSPORT_ERROR, Detail: detail}
}

func ServerRejected(statusCode int) SubmissionResult {
	return SubmissionResult{Outcome: OUT_SERVER_REJECTED, StatusCode: statusCode}
}

func (r SubmissionResult) Err() error {
	return r.Detail
}

func (r SubmissionResult) String() string {
	switch r.Outcome {
	case OUT_SERVER_REJECTED:
		return fmt.Sprintf("%s (http %d)", r.Outcome, r.StatusCode)
	case OUT_TRANSPORT_ERROR:
		if r.Detail != nil {
			return fmt.Sprintf("%s: %v", r.Outcome, r.Detail)
		}
	}
	return r.Outcome.String()
}
