package state

// State identifies a conversation step.
type State string

// StateIdle is the implicit state of users without a session.
const StateIdle State = "idle"

// Session is a snapshot of one user's conversation.
type Session struct {
	State    State
	TempData map[string]string
}

// Temp returns a temp value and whether it was set.
func (s Session) Temp(key string) (string, bool) {
	v, ok := s.TempData[key]
	return v, ok
}

// Manager stores sessions keyed by user id.
// Get always returns a copy; mutating it has no effect until Put.
type Manager interface {
	Get(userID int64) Session
	Put(userID int64, s Session)
	Clear(userID int64)
	GetState(userID int64) State
	InProgress(userID int64) bool
}
