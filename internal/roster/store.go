package roster

import "context"

// Store is interface-driven to keep the engine testable and to allow swapping
// in-memory and PostgreSQL persistence without rewiring business code.
// Stores return sentinel errors; the service layer translates them into coded
// domain errors.
type Store interface {
	// FindActivity loads an activity with its participants. Inside a
	// transaction, implementations must lock the activity row so the
	// check-then-act in the engine is atomic against racing transactions.
	FindActivity(ctx context.Context, name string) (*Activity, error)
	ListActivities(ctx context.Context) ([]*Activity, error)
	InsertActivity(ctx context.Context, a *Activity) error
	UpdateActivity(ctx context.Context, name string, description, schedule string, maxParticipants int) error
	InsertParticipant(ctx context.Context, activity string, p Participant) error
	DeleteParticipant(ctx context.Context, activity, email string) error
}

// TxRunner provides the transactional boundary for roster mutations. The
// callback either commits as a whole or leaves no trace; contention is retried
// internally with bounded backoff before surfacing sentinel.ErrUnavailable.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(Store) error) error
}
