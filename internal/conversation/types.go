// Package conversation sequences the offer flow per user:
// IDLE -> AWAITING_PHONE -> AWAITING_CODE -> IDLE.
//
// Every inbound event is resolved against a single transition table keyed
// by (state, event kind). Transitions receive an explicit Context holding the
// user's state and in-progress phone number; storage is reached only through
// the entitlement Engine.
package conversation

import (
	"github.com/m3rciful/offerbot/core/telegram/state"
	"github.com/m3rciful/offerbot/internal/entitlement"
)

// State is the conversation step of one user.
type State int

const (
	StateIdle State = iota
	StateAwaitingPhone
	StateAwaitingCode
)

func (s State) String() string {
	switch s {
	case StateAwaitingPhone:
		return "awaiting_phone"
	case StateAwaitingCode:
		return "awaiting_code"
	default:
		return "idle"
	}
}

func (s State) session() state.State {
	if s == StateIdle {
		return state.StateIdle
	}
	return state.State(s.String())
}

func fromSession(st state.State) State {
	switch string(st) {
	case StateAwaitingPhone.String():
		return StateAwaitingPhone
	case StateAwaitingCode.String():
		return StateAwaitingCode
	default:
		return StateIdle
	}
}

// EventKind classifies inbound events.
type EventKind int

const (
	EventText EventKind = iota
	EventStart
	EventStatus
	EventHelp
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventStatus:
		return "status"
	case EventHelp:
		return "help"
	case EventCancel:
		return "cancel"
	default:
		return "text"
	}
}

// Event is one inbound command or message. The sender fields are only used
// for operator notifications.
type Event struct {
	Kind      EventKind
	Text      string
	FirstName string
	Username  string
}

// Context is the per-conversation data handed to every transition.
type Context struct {
	UserID int64
	State  State
	Phone  string
}

// ReplyKind selects the message the transport renders.
type ReplyKind int

const (
	ReplyHint ReplyKind = iota
	ReplyWelcome
	ReplyCooldown
	ReplyStatusActive
	ReplyStatusExpired
	ReplyNoEntitlement
	ReplyInvalidPhone
	ReplyCodeSent
	ReplyInvalidCode
	ReplyWrongCode
	ReplyCodeExpired
	ReplyNoPendingCode
	ReplyGranted
	ReplyCancelled
	ReplyHelp
)

var replyNames = map[ReplyKind]string{
	ReplyHint:          "hint",
	ReplyWelcome:       "welcome",
	ReplyCooldown:      "cooldown",
	ReplyStatusActive:  "status_active",
	ReplyStatusExpired: "status_expired",
	ReplyNoEntitlement: "no_entitlement",
	ReplyInvalidPhone:  "invalid_phone",
	ReplyCodeSent:      "code_sent",
	ReplyInvalidCode:   "invalid_code",
	ReplyWrongCode:     "wrong_code",
	ReplyCodeExpired:   "code_expired",
	ReplyNoPendingCode: "no_pending_code",
	ReplyGranted:       "granted",
	ReplyCancelled:     "cancelled",
	ReplyHelp:          "help",
}

func (k ReplyKind) String() string {
	if n, ok := replyNames[k]; ok {
		return n
	}
	return "unknown"
}

// Reply is the typed outcome of one event. Only the fields relevant to Kind
// are set: Status for status and grant replies, Cooldown for cooldown
// replies, Code when code disclosure is enabled.
type Reply struct {
	Kind     ReplyKind
	Status   entitlement.Status
	Cooldown entitlement.Cooldown
	Code     string
}
