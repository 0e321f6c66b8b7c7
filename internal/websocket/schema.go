package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionFinish   Action = "finish"
	ActionPing     Action = "ping"
)

// RequestPayload carries every client action; unused fields stay zero.
type RequestPayload struct {
	Action    Action `json:"action"`
	QID       string `json:"q_id,omitempty"`
	Answer    string `json:"ans,omitempty"`
	Position  int    `json:"position,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSuccess   Event = "success"
	EventTick      Event = "tick"
	EventPalette   Event = "palette"
	EventProctor   Event = "proctor_alert"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
)

// TickResponse carries the countdown state, once per second.
type TickResponse struct {
	Event            Event  `json:"event"`
	RemainingSeconds int    `json:"remaining_seconds"`
	RemainingDisplay string `json:"remaining_display"`
}

// PaletteResponse carries the full palette after an answer or navigation.
type PaletteResponse struct {
	Event    Event    `json:"event"`
	Current  int      `json:"current"`
	Palette  []string `json:"palette"`
	Answered int      `json:"answered"`
}

// ProctorResponse notifies the client of a proctor status transition.
type ProctorResponse struct {
	Event   Event  `json:"event"`
	Status  string `json:"status"`
	Alert   bool   `json:"alert"`
	Message string `json:"message"`
}

// SubmittedResponse tells the client the attempt is finalized.
type SubmittedResponse struct {
	Event Event `json:"event"`
}

type SuccessResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
