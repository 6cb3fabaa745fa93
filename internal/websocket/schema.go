package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionViolation Action = "violation"
	ActionPing      Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ViolationMessage is sent by the client when the proctoring script detects
// a rule break (fullscreen exit, tab/visibility loss).
type ViolationMessage struct {
	Action Action `json:"action"`
	Kind   string `json:"kind"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventWarning    Event = "warning"
	EventTerminated Event = "terminated"
	EventPong       Event = "pong"
)

// WarningResponse tells the client how many violations remain before
// termination.
type WarningResponse struct {
	Event          Event `json:"event"`
	ViolationCount int   `json:"violation_count"`
	Remaining      int   `json:"remaining"`
}

// TerminatedResponse tells the client the session is over.
type TerminatedResponse struct {
	Event          Event `json:"event"`
	ViolationCount int   `json:"violation_count"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
