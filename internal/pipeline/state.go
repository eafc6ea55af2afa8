package pipeline

// State is the furthest point a request reached.
type State string

const (
	StateReceived    State = "RECEIVED"
	StateRateChecked State = "RATE_CHECKED"
	StateBotChecked  State = "BOT_CHECKED"
	StateValidated   State = "VALIDATED"
	StateSanitized   State = "SANITIZED"
	StateFileChecked State = "FILE_CHECKED"
	StateForwarded   State = "FORWARDED"
	StateAccepted    State = "ACCEPTED"
	StateRejected    State = "REJECTED"
)

// Stage names used as metric and log labels.
const (
	StageRateLimit = "rate_limit"
	StageBotFilter = "bot_filter"
	StageValidate  = "validate"
	StageSanitize  = "sanitize"
	StageFileGuard = "file_guard"
	StageForward   = "forward"
)
