// Package prompt defines the system/user text pair sent to a model for one
// completion.
package prompt

// Prompt is one completion request's textual content. Both fields are passed
// through to the backend untouched; empty strings are legal.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// New returns a Prompt with the given system and user text.
func New(system, user string) Prompt {
	return Prompt{System: system, User: user}
}

// Empty reports whether the user text is empty.
func (p Prompt) Empty() bool {
	return p.User == ""
}
