package models

// SessionStatus is the outcome of a provider checkout session. It is a closed
// sum: the only implementations are SessionCompleted and SessionFailed.
type SessionStatus interface {
	isSessionStatus()
	Kind() string
}

// SessionCompleted means the provider reports the session as paid.
type SessionCompleted struct {
	// Principal is the client reference attached when the session was created, if any.
	Principal Principal `json:"principal,omitempty"`
	Response  string    `json:"response"`
}

// SessionFailed means the session is unpaid, expired or unknown.
type SessionFailed struct {
	Error string `json:"error"`
}

func (SessionCompleted) isSessionStatus() {}
func (SessionFailed) isSessionStatus()    {}

func (SessionCompleted) Kind() string { return "completed" }
func (SessionFailed) Kind() string    { return "failed" }
