package chat

import (
	"encoding/json"
	"fmt"
)

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Turn is one chat bubble. Turns carry no identifier beyond their position.
type Turn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// UserTurn builds a turn authored by the user.
func UserTurn(text string) Turn {
	return Turn{Sender: SenderUser, Text: text}
}

// BotTurn builds a turn authored by the assistant.
func BotTurn(text string) Turn {
	return Turn{Sender: SenderBot, Text: text}
}

// Transcript is the ordered chat history.
type Transcript []Turn

// MarshalJSON encodes an empty transcript as [] rather than null.
func (t Transcript) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Turn(t))
}

// DecodeTranscript parses the stored representation. Empty input and a JSON
// null both decode to an empty transcript.
func DecodeTranscript(data []byte) (Transcript, error) {
	if len(data) == 0 {
		return Transcript{}, nil
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	if turns == nil {
		return Transcript{}, nil
	}
	return Transcript(turns), nil
}
