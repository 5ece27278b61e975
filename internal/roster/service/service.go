// Package service implements the roster engine: every mutation validates its
// invariants inside a transaction and publishes exactly one event after the
// commit succeeds, never before and never on failure.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rosterhub/internal/event"
	"rosterhub/internal/platform/metrics"
	"rosterhub/internal/roster"
	dErrors "rosterhub/pkg/domain-errors"
	emailfmt "rosterhub/pkg/email"
	"rosterhub/pkg/platform/sentinel"
)

// Publisher is the engine's view of the event bus.
type Publisher interface {
	Publish(e event.Event)
}

// Service enforces the roster invariants. Per-activity serialization: the
// keyed lock is held across the transaction and the publish, so events enter
// the bus in commit order for each activity. Operations on different
// activities run fully concurrently.
type Service struct {
	store   roster.Store
	tx      roster.TxRunner
	bus     Publisher
	locks   keyedLocks
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store roster.Store, tx roster.TxRunner, bus Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		tx:      tx,
		bus:     bus,
		logger:  logger,
		metrics: m,
	}
}

// List returns all activities with their participants. Read-only, no event.
func (s *Service) List(ctx context.Context) ([]*roster.Activity, error) {
	activities, err := s.store.ListActivities(ctx)
	if err != nil {
		return nil, s.translate(err, "activity")
	}
	return activities, nil
}

// Signup enrolls email in the activity and returns the new participant count.
func (s *Service) Signup(ctx context.Context, activityName, email string) (int, error) {
	if strings.TrimSpace(email) == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "email is required")
	}

	unlock := s.locks.lock(activityName)
	defer unlock()

	var count, capacity int
	err := s.tx.RunInTx(ctx, func(store roster.Store) error {
		activity, err := store.FindActivity(ctx, activityName)
		if err != nil {
			return err
		}
		if activity.Enrolled(email) {
			return dErrors.New(dErrors.CodeConflict, "student is already signed up")
		}
		if activity.Full() {
			return dErrors.New(dErrors.CodeCapacityExceeded, "activity is full")
		}
		participant := roster.Participant{Email: email, Name: emailfmt.DisplayName(email)}
		if err := store.InsertParticipant(ctx, activityName, participant); err != nil {
			return err
		}
		count = len(activity.Participants) + 1
		capacity = activity.MaxParticipants
		return nil
	})
	if err != nil {
		return 0, s.translate(err, "activity")
	}

	s.metrics.IncrementSignups()
	s.bus.Publish(event.Event{
		Kind:              event.KindSignup,
		Activity:          activityName,
		Email:             email,
		ParticipantsCount: count,
		MaxParticipants:   capacity,
	})
	return count, nil
}

// Unregister removes email from the activity and returns the new count.
func (s *Service) Unregister(ctx context.Context, activityName, email string) (int, error) {
	if strings.TrimSpace(email) == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "email is required")
	}

	unlock := s.locks.lock(activityName)
	defer unlock()

	var count, capacity int
	err := s.tx.RunInTx(ctx, func(store roster.Store) error {
		activity, err := store.FindActivity(ctx, activityName)
		if err != nil {
			return err
		}
		if !activity.Enrolled(email) {
			return dErrors.New(dErrors.CodeNotEnrolled, "student is not signed up for this activity")
		}
		if err := store.DeleteParticipant(ctx, activityName, email); err != nil {
			return err
		}
		count = len(activity.Participants) - 1
		capacity = activity.MaxParticipants
		return nil
	})
	if err != nil {
		return 0, s.translate(err, "activity")
	}

	s.metrics.IncrementUnregisters()
	s.bus.Publish(event.Event{
		Kind:              event.KindUnregister,
		Activity:          activityName,
		Email:             email,
		ParticipantsCount: count,
		MaxParticipants:   capacity,
	})
	return count, nil
}

// CreateActivity inserts a new empty activity.
func (s *Service) CreateActivity(ctx context.Context, name, description, schedule string, maxParticipants int) (*roster.Activity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if maxParticipants <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "max_participants must be positive")
	}

	unlock := s.locks.lock(name)
	defer unlock()

	activity := &roster.Activity{
		Name:            name,
		Description:     description,
		Schedule:        schedule,
		MaxParticipants: maxParticipants,
	}
	err := s.tx.RunInTx(ctx, func(store roster.Store) error {
		return store.InsertActivity(ctx, activity)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "activity already exists")
		}
		return nil, s.translate(err, "activity")
	}

	s.bus.Publish(event.Event{
		Kind:     event.KindActivityCreated,
		Activity: name,
		Details: &event.Details{
			Description:     description,
			Schedule:        schedule,
			MaxParticipants: maxParticipants,
		},
	})
	return activity, nil
}

// UpdateActivity applies the supplied fields only; others stay unchanged.
// The emitted event carries the full merged details.
func (s *Service) UpdateActivity(ctx context.Context, name string, patch roster.ActivityPatch) (*roster.Activity, error) {
	if patch.MaxParticipants != nil && *patch.MaxParticipants <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "max_participants must be positive")
	}

	unlock := s.locks.lock(name)
	defer unlock()

	var merged *roster.Activity
	err := s.tx.RunInTx(ctx, func(store roster.Store) error {
		activity, err := store.FindActivity(ctx, name)
		if err != nil {
			return err
		}
		patch.Apply(activity)
		if activity.MaxParticipants < len(activity.Participants) {
			return dErrors.New(dErrors.CodeConflict, "max_participants below current enrollment")
		}
		if err := store.UpdateActivity(ctx, name, activity.Description, activity.Schedule, activity.MaxParticipants); err != nil {
			return err
		}
		merged = activity
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "activity")
	}

	s.bus.Publish(event.Event{
		Kind:     event.KindActivityUpdated,
		Activity: name,
		Details: &event.Details{
			Description:     merged.Description,
			Schedule:        merged.Schedule,
			MaxParticipants: merged.MaxParticipants,
		},
	})
	return merged, nil
}

// translate converts sentinel store errors into coded domain errors. Coded
// errors pass through untouched.
func (s *Service) translate(err error, subject string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, subject+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, subject+" conflict")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store temporarily unavailable")
	default:
		s.logger.Error("unexpected store error", "error", err.Error())
		return dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
	}
}
