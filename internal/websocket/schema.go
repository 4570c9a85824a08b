package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer    Action = "answer"
	ActionFlag      Action = "flag"
	ActionViolation Action = "violation"
	ActionSubmit    Action = "submit"
	ActionStatus    Action = "status"
	ActionPing      Action = "ping"
)

// RequestPayload is the single client message shape; fields beyond Action
// are read per action.
type RequestPayload struct {
	Action         Action `json:"action"`
	QuestionNumber int    `json:"question_number,omitempty"`
	Answer         string `json:"answer,omitempty"`
	TimeSpent      int    `json:"time_spent_seconds,omitempty"`
	Flagged        *bool  `json:"flagged,omitempty"`
	ViolationType  string `json:"violation_type,omitempty"`
	Detail         string `json:"detail,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventFlagged   Event = "flagged"
	EventViolation Event = "violation"
	EventStatus    Event = "status"
	EventEvaluated Event = "evaluated"
	EventExpired   Event = "expired"
	EventPong      Event = "pong"
)

// ResponsePayload wraps every server message in one envelope.
type ResponsePayload struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}
