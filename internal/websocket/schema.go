package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick    Event = "tick"
	EventWarning Event = "warning"
	EventExpired Event = "expired"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// TickResponse carries the authoritative remaining time, pushed once
// per second while the timer runs.
type TickResponse struct {
	Event     Event  `json:"event"`
	Remaining string `json:"remaining"`
}

// WarningResponse is pushed once when the five-minute mark is crossed.
type WarningResponse struct {
	Event     Event  `json:"event"`
	Remaining string `json:"remaining"`
}

// ExpiredResponse is the final message before the server closes the stream.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
