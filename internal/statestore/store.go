package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/hostlink/internal/entity"
	"github.com/nerrad567/hostlink/internal/infrastructure/database"
)

// ErrInvalidState is returned when saving anything other than ON or OFF.
var ErrInvalidState = errors.New("statestore: invalid switch state")

// Store persists the last confirmed state of each switch so it can be
// republished after a restart.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// New creates a store on an opened and migrated database.
func New(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Load returns every remembered switch state keyed by entity ID.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT entity_id, state FROM switch_states")
	if err != nil {
		return nil, fmt.Errorf("loading switch states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]string)
	for rows.Next() {
		var id, state string
		if err := rows.Scan(&id, &state); err != nil {
			return nil, fmt.Errorf("scanning switch state: %w", err)
		}
		states[id] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading switch states: %w", err)
	}
	return states, nil
}

// Save records state for entityID, replacing any earlier value.
func (s *Store) Save(ctx context.Context, entityID, state string) error {
	if state != entity.StateOn && state != entity.StateOff {
		return fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO switch_states (entity_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`,
		entityID, state, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving switch state for %s: %w", entityID, err)
	}
	return nil
}
