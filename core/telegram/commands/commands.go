// Package commands declares the metadata a bot command is registered with.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is one registry entry.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Usage replaces the bare command in help listings, e.g. "/lookup <user_id>".
	Usage string
	// AdminOnly commands are gated and left out of the public command menu.
	AdminOnly bool
	// Hidden commands are routed but never listed.
	Hidden  bool
	Aliases []string
}

// Label is the help text form of the command.
func (c Command) Label(name string) string {
	if c.Usage != "" {
		return c.Usage
	}
	return name
}
