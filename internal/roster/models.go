package roster

// Activity is a named extracurricular offering with a participant capacity.
// Name is the identity; activities are never deleted.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	Participants    []Participant
}

// Participant is a student's enrollment in one activity. Identity is the
// (activity, email) pair; email is an opaque exact-match key.
type Participant struct {
	Email string
	Name  string
	Grade *int
}

// ActivityPatch carries partial updates. Nil fields are left unchanged
// (merge semantics, not replace).
type ActivityPatch struct {
	Description     *string `json:"description"`
	Schedule        *string `json:"schedule"`
	MaxParticipants *int    `json:"max_participants"`
}

// Apply merges the patch into the activity in place.
func (p ActivityPatch) Apply(a *Activity) {
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Schedule != nil {
		a.Schedule = *p.Schedule
	}
	if p.MaxParticipants != nil {
		a.MaxParticipants = *p.MaxParticipants
	}
}

// Enrolled reports whether email already has a participant record. The scan is
// an exact, case-sensitive match.
func (a *Activity) Enrolled(email string) bool {
	for _, p := range a.Participants {
		if p.Email == email {
			return true
		}
	}
	return false
}

// Full reports whether the roster has reached capacity.
func (a *Activity) Full() bool {
	return len(a.Participants) >= a.MaxParticipants
}
