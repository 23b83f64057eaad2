package core

import "encoding/json"

const (
	AppName          = "PII-Safe Chat"
	AppUserAgent     = "piichat/0.1"
	AppRepositoryURL = "https://github.com/sandevgo/piichat"
	AppVersion       = "0.1.0"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one entry of a conversation log. Turns are never edited after they
// have been appended.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Exchange is a user turn paired with the assistant reply that followed it.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// MarshalJSON renders an exchange as a two element array, the shape chat
// widgets expect.
func (e Exchange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.User, e.Assistant})
}

func (e *Exchange) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	e.User, e.Assistant = pair[0], pair[1]
	return nil
}

type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
}
