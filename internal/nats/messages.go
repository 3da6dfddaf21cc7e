package nats

import (
	"encoding/json"
	"fmt"
)

// Default subjects. Commands flow in, state announcements flow out.
const (
	SubjectPrefix         = "stripnode"
	DefaultCommandSubject = SubjectPrefix + ".strip.command"
	DefaultStateSubject   = SubjectPrefix + ".strip.state"
)

// StateSubject derives the state subject that pairs with a command subject,
// so "site.a.command" announces on "site.a.state".
func StateSubject(commandSubject string) string {
	const suffix = ".command"
	if n := len(commandSubject) - len(suffix); n > 0 && commandSubject[n:] == suffix {
		return commandSubject[:n] + ".state"
	}
	return commandSubject + ".state"
}

// StateMessage mirrors a strip state change for remote observers.
type StateMessage struct {
	Device    string  `json:"device"`
	Enabled   bool    `json:"enabled"`
	Pattern   string  `json:"pattern"`
	Color     string  `json:"color"`
	Frequency float64 `json:"frequency,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m StateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalState deserializes a StateMessage from JSON.
func UnmarshalState(data []byte) (StateMessage, error) {
	var m StateMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return StateMessage{}, fmt.Errorf("decode state message: %w", err)
	}
	return m, nil
}
