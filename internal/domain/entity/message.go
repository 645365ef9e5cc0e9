package entity

import "time"

// Role who authored a chat turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message a single chat turn. Immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Outcome where the model-side text of an exchange came from
type Outcome string

const (
	OutcomeReply   Outcome = "reply"
	OutcomeDemo    Outcome = "demo"
	OutcomeApology Outcome = "apology"
)

// Exchange a question/answer pair written to the transcript archive
type Exchange struct {
	ID         string    `json:"id"`
	WidgetID   string    `json:"widget_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Outcome    Outcome   `json:"outcome"`
	AskedAt    time.Time `json:"asked_at"`
	AnsweredAt time.Time `json:"answered_at"`
}

// WidgetState externally visible snapshot of a chat widget
type WidgetState struct {
	ID       string    `json:"id"`
	Open     bool      `json:"open"`
	Awaiting bool      `json:"awaiting_reply"`
	DemoMode bool      `json:"demo_mode"`
	Messages []Message `json:"messages"`
}
