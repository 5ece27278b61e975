package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"rosterhub/internal/roster"
	"rosterhub/pkg/platform/sentinel"
)

// querier abstracts *sql.DB and *sql.Tx so the same store code serves plain
// reads and the transactional path.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Postgres persists the roster in PostgreSQL. This store is pure I/O; capacity
// and uniqueness rules belong in the service layer, backed here by row locking
// and the unique participant constraint.
type Postgres struct {
	q querier

	// lock makes FindActivity take the activity row lock. Set on the
	// transactional store so the engine's check-then-act is serialized
	// per activity.
	lock bool
}

// NewPostgres constructs a PostgreSQL-backed roster store for plain reads.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

func newPostgresTxStore(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx, lock: true}
}

func (s *Postgres) FindActivity(ctx context.Context, name string) (*roster.Activity, error) {
	query := `
		SELECT id, name, description, schedule, max_participants
		FROM activities
		WHERE name = $1
	`
	if s.lock {
		query += " FOR UPDATE"
	}
	var (
		id       int64
		activity roster.Activity
	)
	err := s.q.QueryRowContext(ctx, query, name).Scan(
		&id, &activity.Name, &activity.Description, &activity.Schedule, &activity.MaxParticipants,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find activity: %w", err)
	}

	participants, err := s.listParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	activity.Participants = participants
	return &activity, nil
}

func (s *Postgres) ListActivities(ctx context.Context) ([]*roster.Activity, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, description, schedule, max_participants
		FROM activities
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []*roster.Activity
	var ids []int64
	for rows.Next() {
		var (
			id       int64
			activity roster.Activity
		)
		if err := rows.Scan(&id, &activity.Name, &activity.Description, &activity.Schedule, &activity.MaxParticipants); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, &activity)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	for i, id := range ids {
		participants, err := s.listParticipants(ctx, id)
		if err != nil {
			return nil, err
		}
		activities[i].Participants = participants
	}
	return activities, nil
}

func (s *Postgres) InsertActivity(ctx context.Context, a *roster.Activity) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO activities (name, description, schedule, max_participants)
		VALUES ($1, $2, $3, $4)
	`, a.Name, a.Description, a.Schedule, a.MaxParticipants)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateActivity(ctx context.Context, name string, description, schedule string, maxParticipants int) error {
	result, err := s.q.ExecContext(ctx, `
		UPDATE activities
		SET description = $2, schedule = $3, max_participants = $4
		WHERE name = $1
	`, name, description, schedule, maxParticipants)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) InsertParticipant(ctx context.Context, activity string, p roster.Participant) error {
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO participants (activity_id, email, name, grade)
		SELECT id, $2, $3, $4 FROM activities WHERE name = $1
	`, activity, p.Email, nullableString(p.Name), p.Grade)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteParticipant(ctx context.Context, activity, email string) error {
	result, err := s.q.ExecContext(ctx, `
		DELETE FROM participants
		USING activities
		WHERE participants.activity_id = activities.id
		  AND activities.name = $1
		  AND participants.email = $2
	`, activity, email)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) listParticipants(ctx context.Context, activityID int64) ([]roster.Participant, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT email, COALESCE(name, ''), grade
		FROM participants
		WHERE activity_id = $1
		ORDER BY id
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []roster.Participant
	for rows.Next() {
		var p roster.Participant
		if err := rows.Scan(&p.Email, &p.Name, &p.Grade); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
