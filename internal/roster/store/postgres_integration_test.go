//go:build integration

package store_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rosterhub/internal/event"
	"rosterhub/internal/roster"
	"rosterhub/internal/roster/service"
	"rosterhub/internal/roster/store"
	dErrors "rosterhub/pkg/domain-errors"
	"rosterhub/pkg/platform/sentinel"
	"rosterhub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	tx       *store.PostgresTx
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.EnsureSchema(context.Background(), s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
	s.tx = store.NewPostgresTx(s.postgres.DB, nil)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "participants", "activities")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestActivityRoundTrip() {
	ctx := context.Background()

	activity := &roster.Activity{
		Name:            "Chess Club",
		Description:     "Learn strategies and compete in chess tournaments",
		Schedule:        "Fridays, 3:30 PM - 5:00 PM",
		MaxParticipants: 12,
	}
	s.Require().NoError(s.store.InsertActivity(ctx, activity))

	found, err := s.store.FindActivity(ctx, "Chess Club")
	s.Require().NoError(err)
	s.Equal("Chess Club", found.Name)
	s.Equal(12, found.MaxParticipants)
	s.Empty(found.Participants)

	s.ErrorIs(s.store.InsertActivity(ctx, activity), sentinel.ErrConflict)

	_, err = s.store.FindActivity(ctx, "Quidditch")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestParticipants() {
	ctx := context.Background()
	s.Require().NoError(s.store.InsertActivity(ctx, &roster.Activity{Name: "Art Club", MaxParticipants: 15}))

	grade := 10
	s.Require().NoError(s.store.InsertParticipant(ctx, "Art Club", roster.Participant{
		Email: "amelia@mergington.edu",
		Name:  "Amelia",
		Grade: &grade,
	}))

	s.Run("duplicate email hits the unique constraint", func() {
		err := s.store.InsertParticipant(ctx, "Art Club", roster.Participant{Email: "amelia@mergington.edu"})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown activity inserts nothing", func() {
		err := s.store.InsertParticipant(ctx, "Quidditch", roster.Participant{Email: "a@mergington.edu"})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("participant fields survive the round trip", func() {
		found, err := s.store.FindActivity(ctx, "Art Club")
		s.Require().NoError(err)
		s.Require().Len(found.Participants, 1)
		s.Equal("amelia@mergington.edu", found.Participants[0].Email)
		s.Equal("Amelia", found.Participants[0].Name)
		s.Require().NotNil(found.Participants[0].Grade)
		s.Equal(10, *found.Participants[0].Grade)
	})

	s.Run("delete removes exactly the matching email", func() {
		s.Require().NoError(s.store.DeleteParticipant(ctx, "Art Club", "amelia@mergington.edu"))
		s.ErrorIs(s.store.DeleteParticipant(ctx, "Art Club", "amelia@mergington.edu"), sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestUpdateActivity() {
	ctx := context.Background()
	s.Require().NoError(s.store.InsertActivity(ctx, &roster.Activity{
		Name:            "Gym Class",
		Description:     "Physical education and sports activities",
		Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
		MaxParticipants: 30,
	}))

	s.Require().NoError(s.store.UpdateActivity(ctx, "Gym Class", "Updated", "Tuesdays", 25))

	found, err := s.store.FindActivity(ctx, "Gym Class")
	s.Require().NoError(err)
	s.Equal("Updated", found.Description)
	s.Equal("Tuesdays", found.Schedule)
	s.Equal(25, found.MaxParticipants)

	s.ErrorIs(s.store.UpdateActivity(ctx, "Quidditch", "x", "y", 5), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListActivitiesSortedByName() {
	ctx := context.Background()
	for _, name := range []string{"Math Club", "Art Club", "Chess Club"} {
		s.Require().NoError(s.store.InsertActivity(ctx, &roster.Activity{Name: name, MaxParticipants: 10}))
	}

	activities, err := s.store.ListActivities(ctx)
	s.Require().NoError(err)
	s.Require().Len(activities, 3)
	s.Equal("Art Club", activities[0].Name)
	s.Equal("Chess Club", activities[1].Name)
	s.Equal("Math Club", activities[2].Name)
}

func (s *PostgresStoreSuite) TestSeed() {
	ctx := context.Background()

	s.Require().NoError(store.Seed(ctx, s.store))

	activities, err := s.store.ListActivities(ctx)
	s.Require().NoError(err)
	s.Len(activities, 9)

	chess, err := s.store.FindActivity(ctx, "Chess Club")
	s.Require().NoError(err)
	s.Equal(12, chess.MaxParticipants)

	// Seeding again is a no-op.
	s.Require().NoError(store.Seed(ctx, s.store))
	activities, err = s.store.ListActivities(ctx)
	s.Require().NoError(err)
	s.Len(activities, 9)
}

// TestRunInTxRollsBackOnError verifies nothing commits when the callback fails.
func (s *PostgresStoreSuite) TestRunInTxRollsBackOnError() {
	ctx := context.Background()
	s.Require().NoError(s.store.InsertActivity(ctx, &roster.Activity{Name: "Debate Team", MaxParticipants: 12}))

	wantErr := dErrors.New(dErrors.CodeConflict, "boom")
	err := s.tx.RunInTx(ctx, func(txStore roster.Store) error {
		if err := txStore.InsertParticipant(ctx, "Debate Team", roster.Participant{Email: "a@mergington.edu"}); err != nil {
			return err
		}
		return wantErr
	})
	s.Require().ErrorIs(err, wantErr)

	found, err := s.store.FindActivity(ctx, "Debate Team")
	s.Require().NoError(err)
	s.Empty(found.Participants)
}

// TestRunInTxDeadlineMapsToTimeout verifies a context that expires mid-flight
// surfaces as a timeout, not an internal error.
func (s *PostgresStoreSuite) TestRunInTxDeadlineMapsToTimeout() {
	s.Require().NoError(s.store.InsertActivity(context.Background(), &roster.Activity{Name: "Drama Club", MaxParticipants: 20}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.tx.RunInTx(ctx, func(txStore roster.Store) error {
		<-ctx.Done()
		_, err := txStore.FindActivity(ctx, "Drama Club")
		return err
	})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeTimeout), "got %v", err)
}

// TestConcurrentSignupsHoldCapacity drives the full engine path against real
// row locking: many racing signups, capacity never exceeded.
func (s *PostgresStoreSuite) TestConcurrentSignupsHoldCapacity() {
	ctx := context.Background()
	const capacity = 10
	const goroutines = 30

	s.Require().NoError(s.store.InsertActivity(ctx, &roster.Activity{Name: "Soccer Team", MaxParticipants: capacity}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(s.store, s.tx, nopPublisher{}, logger, nil)

	var wg sync.WaitGroup
	var successCount, rejectedCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Signup(ctx, "Soccer Team", fmt.Sprintf("student%d@mergington.edu", i))
			switch {
			case err == nil:
				successCount.Add(1)
			case dErrors.Is(err, dErrors.CodeCapacityExceeded):
				rejectedCount.Add(1)
			default:
				s.T().Errorf("unexpected signup error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(capacity), successCount.Load())
	s.Equal(int32(goroutines-capacity), rejectedCount.Load())

	found, err := s.store.FindActivity(ctx, "Soccer Team")
	s.Require().NoError(err)
	s.Len(found.Participants, capacity)
}

type nopPublisher struct{}

func (nopPublisher) Publish(event.Event) {}
