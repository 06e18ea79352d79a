// Package room derives the conferencing room address of a live session.
package room

import "github.com/google/uuid"

const (
	DefaultHost   = "meet.jit.si"
	DefaultPrefix = "nexus-live"
)

// Address is a pure function of the session id, so two sessions never share a room.
func Address(host, prefix string, sessionID uuid.UUID) string {
	if host == "" {
		host = DefaultHost
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return "https://" + host + "/" + prefix + "-" + sessionID.String()
}

// Generator binds the configured host and prefix.
type Generator struct {
	Host   string
	Prefix string
}

func (g Generator) Address(sessionID uuid.UUID) string {
	return Address(g.Host, g.Prefix, sessionID)
}
