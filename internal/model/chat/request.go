package chat

import "encoding/json"

// Action names a request kind understood by the relay.
type Action string

const (
	ActionGetHistory      Action = "getHistory"
	ActionProcessQuestion Action = "processQuestion"
	ActionClearHistory    Action = "clearHistory"
)

// Request is a UI message sent to the relay.
type Request struct {
	Action Action `json:"action"`
	Query  string `json:"query,omitempty"`
}

// Response is what the relay hands back to the UI. Its JSON shape depends on
// the action: {history} for history reads and clears, {answer} for questions.
type Response struct {
	Action  Action
	History Transcript
	Answer  string
	Error   string
}

// MarshalJSON emits only the fields belonging to the response's action.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}

	switch r.Action {
	case ActionProcessQuestion:
		return json.Marshal(struct {
			Answer string `json:"answer"`
		}{r.Answer})
	default:
		return json.Marshal(struct {
			History Transcript `json:"history"`
		}{r.History})
	}
}
