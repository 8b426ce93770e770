package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Speaker tags a turn in a practice conversation.
type Speaker string

// Speakers in a practice conversation.
const (
	SpeakerCoach  Speaker = "coach"
	SpeakerClient Speaker = "client"
)

// Persisted role labels. The human practising as coach is stored as "assistant"
// and the simulated client as "user"; dashboards read the record with this mapping.
const (
	conversationRoleCoach  = "assistant"
	conversationRoleClient = "user"
)

// InitialGreeting stands in for the client's previous utterance on the first turn.
const InitialGreeting = "Initial greeting"

// Evaluation is the scored critique attached to a single coach turn.
type Evaluation struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Turn is one message in a practice conversation. Only coach turns carry an evaluation.
type Turn struct {
	Speaker    Speaker
	Text       string
	Evaluation *Evaluation
}

// NewCoachTurn builds a coach turn with its evaluation attached.
func NewCoachTurn(text string, evaluation Evaluation) Turn {
	if evaluation.Strengths == nil {
		evaluation.Strengths = []string{}
	}
	if evaluation.Improvements == nil {
		evaluation.Improvements = []string{}
	}
	return Turn{Speaker: SpeakerCoach, Text: text, Evaluation: &evaluation}
}

// NewClientTurn builds a simulated-client turn.
func NewClientTurn(text string) Turn {
	return Turn{Speaker: SpeakerClient, Text: text}
}

// IsCoach reports whether the turn was written by the human coach.
func (t Turn) IsCoach() bool {
	return t.Speaker == SpeakerCoach
}

// Role returns the persisted role label for the turn.
func (t Turn) Role() string {
	if t.IsCoach() {
		return conversationRoleCoach
	}
	return conversationRoleClient
}

type turnWire struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// MarshalJSON encodes the turn in the persisted message shape.
func (t Turn) MarshalJSON() ([]byte, error) {
	wire := turnWire{Role: t.Role(), Content: t.Text}
	if t.IsCoach() {
		wire.Evaluation = t.Evaluation
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a persisted message into a tagged turn.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var wire turnWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Role {
	case conversationRoleCoach:
		if wire.Evaluation == nil {
			*t = Turn{Speaker: SpeakerCoach, Text: wire.Content}
			return nil
		}
		*t = NewCoachTurn(wire.Content, *wire.Evaluation)
	case conversationRoleClient:
		*t = NewClientTurn(wire.Content)
	default:
		return fmt.Errorf("unknown conversation role %q", wire.Role)
	}
	return nil
}

// Conversation is the ordered, append-only record of a practice attempt.
type Conversation struct {
	Turns []Turn
}

type conversationWire struct {
	Messages []Turn `json:"messages"`
}

// Len returns the number of turns.
func (c Conversation) Len() int {
	return len(c.Turns)
}

// Append returns a new conversation with the turns added at the end. The receiver is left untouched.
func (c Conversation) Append(turns ...Turn) Conversation {
	next := make([]Turn, 0, len(c.Turns)+len(turns))
	next = append(next, c.Turns...)
	next = append(next, turns...)
	return Conversation{Turns: next}
}

// LastText returns the content of the most recent turn, or InitialGreeting when empty.
func (c Conversation) LastText() string {
	if len(c.Turns) == 0 {
		return InitialGreeting
	}
	return c.Turns[len(c.Turns)-1].Text
}

// Evaluations returns the evaluations attached to coach turns, in order.
func (c Conversation) Evaluations() []Evaluation {
	out := make([]Evaluation, 0, len(c.Turns)/2+1)
	for _, turn := range c.Turns {
		if turn.IsCoach() && turn.Evaluation != nil {
			out = append(out, *turn.Evaluation)
		}
	}
	return out
}

// MarshalJSON encodes the record as {"messages": [...]}.
func (c Conversation) MarshalJSON() ([]byte, error) {
	turns := c.Turns
	if turns == nil {
		turns = []Turn{}
	}
	return json.Marshal(conversationWire{Messages: turns})
}

// UnmarshalJSON decodes the {"messages": [...]} record.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var wire conversationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Turns = wire.Messages
	return nil
}

// GormDataType declares the column type used for the record.
func (Conversation) GormDataType() string {
	return "json"
}

// Value implements driver.Valuer.
func (c Conversation) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (c *Conversation) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		c.Turns = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported conversation column type")
	}

	if len(data) == 0 {
		c.Turns = nil
		return nil
	}
	return json.Unmarshal(data, c)
}
