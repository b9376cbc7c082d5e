package entities

// AuthPrompt represents a prompt-response pair during authentication
type AuthPrompt struct {
	WaitFor string // prompt to wait for
	SendCmd string // command to send (empty means just wait)
	Secret  bool   // SendCmd carries a credential and must not be logged
}

// Display returns the command as it may appear in logs
func (p AuthPrompt) Display() string {
	if p.Secret {
		return "********"
	}
	return p.SendCmd
}
