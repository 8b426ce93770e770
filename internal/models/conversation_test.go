package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversationWireShape(t *testing.T) {
	conversation := Conversation{}.Append(
		NewCoachTurn("How are you feeling about the deadline?", Evaluation{Score: 82, Feedback: "Warm opener"}),
		NewClientTurn("Honestly, overwhelmed."),
	)

	data, err := json.Marshal(conversation)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"messages": [
			{"role": "assistant", "content": "How are you feeling about the deadline?",
			 "evaluation": {"score": 82, "feedback": "Warm opener", "strengths": [], "improvements": []}},
			{"role": "user", "content": "Honestly, overwhelmed."}
		]
	}`, string(data))
}

func TestConversationDecodeRoles(t *testing.T) {
	raw := `{"messages":[
		{"role":"assistant","content":"Hi","evaluation":{"score":70,"feedback":"ok","strengths":["clear"],"improvements":[]}},
		{"role":"user","content":"Hello"}
	]}`

	var conversation Conversation
	require.NoError(t, json.Unmarshal([]byte(raw), &conversation))
	require.Equal(t, 2, conversation.Len())
	require.True(t, conversation.Turns[0].IsCoach())
	require.Equal(t, 70.0, conversation.Turns[0].Evaluation.Score)
	require.Equal(t, SpeakerClient, conversation.Turns[1].Speaker)
	require.Nil(t, conversation.Turns[1].Evaluation)
	require.Equal(t, "Hello", conversation.LastText())

	err := json.Unmarshal([]byte(`{"messages":[{"role":"system","content":"x"}]}`), &conversation)
	require.Error(t, err)
}

func TestConversationAppendDoesNotAlias(t *testing.T) {
	base := Conversation{}.Append(NewClientTurn("one"))
	next := base.Append(NewClientTurn("two"))

	require.Equal(t, 1, base.Len())
	require.Equal(t, 2, next.Len())
}

func TestConversationLastTextEmpty(t *testing.T) {
	require.Equal(t, InitialGreeting, Conversation{}.LastText())
}

func TestConversationScanValue(t *testing.T) {
	original := Conversation{}.Append(NewCoachTurn("Hi", Evaluation{Score: 90}), NewClientTurn("Hey"))

	value, err := original.Value()
	require.NoError(t, err)

	var scanned Conversation
	require.NoError(t, scanned.Scan(value))
	require.Equal(t, original.Len(), scanned.Len())
	require.Len(t, scanned.Evaluations(), 1)

	require.NoError(t, scanned.Scan(nil))
	require.Equal(t, 0, scanned.Len())

	require.NoError(t, scanned.Scan([]byte(`{"messages":[]}`)))
	require.Equal(t, 0, scanned.Len())

	require.Error(t, scanned.Scan(42))
}

func TestEmptyConversationEncodesEmptyArray(t *testing.T) {
	data, err := json.Marshal(Conversation{})
	require.NoError(t, err)
	require.JSONEq(t, `{"messages":[]}`, string(data))
}
