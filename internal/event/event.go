// Package event carries roster change notifications from the engine to live
// subscribers. Events are ephemeral: never persisted, never replayed.
package event

import "encoding/json"

// Kind tags a committed state transition.
type Kind string

const (
	KindSignup          Kind = "signup"
	KindUnregister      Kind = "unregister"
	KindActivityCreated Kind = "activity_created"
	KindActivityUpdated Kind = "activity_updated"
)

// Details mirrors the activity attributes sent with creation/update events.
type Details struct {
	Description     string `json:"description"`
	Schedule        string `json:"schedule"`
	MaxParticipants int    `json:"max_participants"`
}

// Event is an immutable record of a committed roster or activity change.
// Roster events (signup, unregister) carry the participant email and counts;
// activity events carry the full resulting details.
type Event struct {
	Kind              Kind
	Activity          string
	Email             string
	ParticipantsCount int
	MaxParticipants   int
	Details           *Details

	// remote marks events injected by the cross-instance bridge so they are
	// not forwarded back out.
	remote bool
}

// Remote reports whether the event originated on another instance.
func (e Event) Remote() bool { return e.remote }

// AsRemote returns a copy tagged as bridge-injected.
func (e Event) AsRemote() Event {
	e.remote = true
	return e
}

type rosterPayload struct {
	Type              Kind   `json:"type"`
	Activity          string `json:"activity"`
	Email             string `json:"email"`
	ParticipantsCount int    `json:"participants_count"`
	MaxParticipants   int    `json:"max_participants"`
}

type activityPayload struct {
	Type    Kind     `json:"type"`
	Name    string   `json:"name"`
	Details *Details `json:"details"`
}

// WirePayload renders the single JSON object transmitted to subscribers.
func (e Event) WirePayload() ([]byte, error) {
	switch e.Kind {
	case KindSignup, KindUnregister:
		return json.Marshal(rosterPayload{
			Type:              e.Kind,
			Activity:          e.Activity,
			Email:             e.Email,
			ParticipantsCount: e.ParticipantsCount,
			MaxParticipants:   e.MaxParticipants,
		})
	default:
		return json.Marshal(activityPayload{
			Type:    e.Kind,
			Name:    e.Activity,
			Details: e.Details,
		})
	}
}
