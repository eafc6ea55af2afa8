package botfilter

import "fmt"

// Status tags the outcome of a score verification.
type Status int

const (
	// NotConfigured means no secret is set; the check is skipped and passes.
	NotConfigured Status = iota
	// Verified means the verifier reported success with a score at or above the threshold.
	Verified
	// Rejected means the verifier answered but did not vouch for the token.
	Rejected
	// VerificationError means the verifier could not be reached or understood.
	VerificationError
)

func (s Status) String() string {
	switch s {
	case NotConfigured:
		return "not_configured"
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	case VerificationError:
		return "verification_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Verdict is the tagged result of Verify.
type Verdict struct {
	Status     Status
	Score      float64
	ErrorCodes []string
	Err        error
}

// Passed is fail-open on missing configuration and fail-closed on a
// reachable verifier that says no or a transport failure.
func (v Verdict) Passed() bool {
	return v.Status == NotConfigured || v.Status == Verified
}

// Reason describes a failed verdict for logs.
func (v Verdict) Reason() string {
	switch v.Status {
	case Rejected:
		if len(v.ErrorCodes) > 0 {
			return fmt.Sprintf("rejected: %v", v.ErrorCodes)
		}
		return fmt.Sprintf("rejected: score %.2f", v.Score)
	case VerificationError:
		return fmt.Sprintf("verification error: %v", v.Err)
	default:
		return v.Status.String()
	}
}

// siteVerifyResponse is the reCAPTCHA v3 siteverify response body.
type siteVerifyResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}
