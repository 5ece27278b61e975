package store

import (
	"context"
	"errors"
	"fmt"

	"rosterhub/internal/roster"
	"rosterhub/pkg/platform/sentinel"
)

// defaultActivities is the bootstrap catalog inserted when the store is empty.
var defaultActivities = []roster.Activity{
	{Name: "Chess Club", Description: "Learn strategies and compete in chess tournaments", Schedule: "Fridays, 3:30 PM - 5:00 PM", MaxParticipants: 12},
	{Name: "Programming Class", Description: "Learn programming fundamentals and build software projects", Schedule: "Tuesdays and Thursdays, 3:30 PM - 4:30 PM", MaxParticipants: 20},
	{Name: "Gym Class", Description: "Physical education and sports activities", Schedule: "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM", MaxParticipants: 30},
	{Name: "Soccer Team", Description: "Join the school soccer team and compete in matches", Schedule: "Tuesdays and Thursdays, 4:00 PM - 5:30 PM", MaxParticipants: 22},
	{Name: "Basketball Team", Description: "Practice and play basketball with the school team", Schedule: "Wednesdays and Fridays, 3:30 PM - 5:00 PM", MaxParticipants: 15},
	{Name: "Art Club", Description: "Explore your creativity through painting and drawing", Schedule: "Thursdays, 3:30 PM - 5:00 PM", MaxParticipants: 15},
	{Name: "Drama Club", Description: "Act, direct, and produce plays and performances", Schedule: "Mondays and Wednesdays, 4:00 PM - 5:30 PM", MaxParticipants: 20},
	{Name: "Math Club", Description: "Solve challenging problems and participate in math competitions", Schedule: "Tuesdays, 3:30 PM - 4:30 PM", MaxParticipants: 10},
	{Name: "Debate Team", Description: "Develop public speaking and argumentation skills", Schedule: "Fridays, 4:00 PM - 5:30 PM", MaxParticipants: 12},
}

// Seed inserts the default activity catalog when the store is empty. Concurrent
// seeding from multiple instances is harmless: name conflicts are skipped.
func Seed(ctx context.Context, s roster.Store) error {
	existing, err := s.ListActivities(ctx)
	if err != nil {
		return fmt.Errorf("seed: list activities: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for i := range defaultActivities {
		a := defaultActivities[i]
		if err := s.InsertActivity(ctx, &a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return fmt.Errorf("seed %q: %w", a.Name, err)
		}
	}
	return nil
}
