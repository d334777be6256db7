package constants

const (
	DefaultSlots    = 9
	DefaultDuration = 10
	RecentEvents    = 8
)

const (
	DifficultyEasy   = "easy"
	DifficultyNormal = "normal"
	DifficultyHard   = "hard"
)

// Reveal delays in milliseconds.
const (
	EasyDelayMs    = 1500
	NormalDelayMs  = 1000
	HardMinDelayMs = 600
	HardMaxDelayMs = 1200
)

const GameStoppedMessage = "game stopped"

const (
	SessionCookieName = "session_id"
	CSRFCookieName    = "csrf_token"
	CSRFHeaderName    = "X-CSRF-Token"
)

const (
	RouteHome      = "/"
	RouteStart     = "/start"
	RouteWhack     = "/whack/:slot"
	RouteGameState = "/game-state"
	RouteHealthz   = "/healthz"
)

const (
	ErrorCodeInvalidDifficulty = "invalid_difficulty"
	ErrorCodeUnknownSlot       = "unknown_slot"
	ErrorCodeStartFailed       = "start_failed"
)

type contextKey string

const RequestIDKey contextKey = "request_id"
