// Package state holds the single authoritative AppState value and its
// mutation operations. Every mutation replaces the whole state
// atomically, persists it, and notifies subscribers in commit order.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// ErrInvalidBackup is returned by Import when the payload does not parse
// into an AppState. The existing state is left untouched.
var ErrInvalidBackup = errors.New("invalid backup payload")

// EventPublisher receives a notification after every committed mutation.
// The optional AMQP client satisfies it; nil disables publishing.
type EventPublisher interface {
	PublishStateChange(ctx context.Context, op string) error
}

// Subscriber observes every committed state in commit order.
type Subscriber func(core.AppState)

type Store struct {
	mu        sync.Mutex
	state     core.AppState
	snapshots storage.SnapshotStore
	events    EventPublisher
	logger    *applog.Logger
	subs      []Subscriber

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithEvents attaches an optional change-event publisher.
func WithEvents(pub EventPublisher) Option {
	return func(s *Store) { s.events = pub }
}

// WithLogger replaces the default logger.
func WithLogger(logger *applog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the persisted snapshot, or seeds the default state when no
// snapshot exists. Loaded state is normalized so a configured pin always
// opens the app locked.
func Open(ctx context.Context, snapshots storage.SnapshotStore, opts ...Option) (*Store, error) {
	s := &Store{
		snapshots: snapshots,
		logger:    applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStore),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, ok, err := snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		s.state = loaded.Normalize()
		s.logger.InfoContext(ctx, "Loaded persisted state",
			applog.FieldOperation, applog.OpLoad,
			"transactions", len(s.state.Transactions),
			"goals", len(s.state.Goals),
			"locked", s.state.IsLocked)
	} else {
		s.state = core.DefaultState()
		s.logger.InfoContext(ctx, "No snapshot found, seeded default state",
			applog.FieldOperation, applog.OpLoad)
	}
	return s, nil
}

// Snapshot returns a copy of the current state for readers.
func (s *Store) Snapshot() core.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to observe every committed state. Register
// subscribers during startup, before mutations begin.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// update runs the read-modify-write cycle under the store lock: mutate
// receives a deep copy of the current state; returning false marks the
// mutation a no-op and skips persisting. Otherwise the new value is
// committed, persisted in its persist-safe form, published and fanned
// out to subscribers in commit order.
func (s *Store) update(ctx context.Context, op string, mutate func(next *core.AppState) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if !mutate(&next) {
		return nil
	}
	s.state = next

	persistErr := s.snapshots.Save(ctx, next.PersistSafe())
	if persistErr != nil {
		// The in-memory state stays authoritative; the failed write is
		// surfaced so the UI can warn, and retried on the next mutation.
		s.logger.ErrorContext(ctx, "Failed to persist state",
			applog.FieldOperation, op,
			applog.FieldError, persistErr)
	}

	if s.events != nil {
		if err := s.events.PublishStateChange(ctx, op); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish state change event",
				applog.FieldOperation, op,
				applog.FieldError, err)
		}
	}

	snapshot := next.Clone()
	for _, fn := range s.subs {
		fn(snapshot)
	}

	if persistErr != nil {
		return fmt.Errorf("persist state: %w", persistErr)
	}
	return nil
}

// AddTransaction assigns a fresh identifier and prepends the transaction:
// newest-first ordering is a hard contract of the transaction list.
func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = s.newID()

	err := s.update(ctx, "add_transaction", func(next *core.AppState) bool {
		next.Transactions = append([]core.Transaction{tx}, next.Transactions...)
		return true
	})
	if err != nil {
		return tx, err
	}

	s.logger.InfoContext(ctx, "Transaction added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldTxID, tx.ID,
		applog.FieldCategory, string(tx.Category),
		applog.FieldAmountCents, tx.Amount.Cents)
	return tx, nil
}

// DeleteTransaction removes the matching entry. An unknown id is a
// no-op, not an error.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.update(ctx, "delete_transaction", func(next *core.AppState) bool {
		kept := next.Transactions[:0]
		removed := false
		for _, tx := range next.Transactions {
			if tx.ID == id {
				removed = true
				continue
			}
			kept = append(kept, tx)
		}
		if !removed {
			return false
		}
		next.Transactions = kept
		s.logger.InfoContext(ctx, "Transaction deleted",
			applog.FieldOperation, applog.OpDelete,
			applog.FieldTxID, id)
		return true
	})
}

// UpdateBudget replaces the limit for the matching category. An absent
// category is a no-op: the store never creates a missing budget row.
func (s *Store) UpdateBudget(ctx context.Context, category core.Category, limit core.Money) error {
	return s.update(ctx, "update_budget", func(next *core.AppState) bool {
		for i, b := range next.Budgets {
			if b.Category == category {
				next.Budgets[i].Limit = limit
				s.logger.InfoContext(ctx, "Budget limit updated",
					applog.FieldOperation, applog.OpUpdate,
					applog.FieldCategory, string(category),
					applog.FieldAmountCents, limit.Cents)
				return true
			}
		}
		return false
	})
}

// AddGoal assigns an identifier and creation timestamp and appends the
// goal. Goals append rather than prepend; their ordering differs from
// transactions.
func (s *Store) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = s.newID()
	g.CreatedAt = s.now()

	err := s.update(ctx, "add_goal", func(next *core.AppState) bool {
		next.Goals = append(next.Goals, g)
		return true
	})
	if err != nil {
		return g, err
	}

	s.logger.InfoContext(ctx, "Goal added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldGoalID, g.ID)
	return g, nil
}

// UpdateGoal sets the accumulated amount for the matching goal; a
// missing id is a no-op. The store accepts any value: clamping to the
// target is the add-progress UI path's concern.
func (s *Store) UpdateGoal(ctx context.Context, id string, current core.Money) error {
	return s.update(ctx, "update_goal", func(next *core.AppState) bool {
		for i, g := range next.Goals {
			if g.ID == id {
				next.Goals[i].CurrentAmount = current
				s.logger.InfoContext(ctx, "Goal progress updated",
					applog.FieldOperation, applog.OpUpdate,
					applog.FieldGoalID, id,
					applog.FieldAmountCents, current.Cents)
				return true
			}
		}
		return false
	})
}

// UpdateUser replaces the user profile wholesale.
func (s *Store) UpdateUser(ctx context.Context, user core.UserProfile) error {
	return s.update(ctx, "update_user", func(next *core.AppState) bool {
		next.User = user
		return true
	})
}

// SetTheme switches between light and dark.
func (s *Store) SetTheme(ctx context.Context, theme core.Theme) error {
	return s.update(ctx, "set_theme", func(next *core.AppState) bool {
		next.Theme = theme
		return true
	})
}

// SetPin stores a new pin, or removes protection when empty.
func (s *Store) SetPin(ctx context.Context, pin string) error {
	return s.update(ctx, "set_pin", func(next *core.AppState) bool {
		next.PIN = pin
		return true
	})
}

// SetLocked toggles the transient lock projection.
func (s *Store) SetLocked(ctx context.Context, locked bool) error {
	return s.update(ctx, "set_locked", func(next *core.AppState) bool {
		next.IsLocked = locked
		return true
	})
}

// Unlock compares the attempt against the stored pin. A match clears the
// lock; a mismatch leaves the state untouched and reports false.
func (s *Store) Unlock(ctx context.Context, attempt string) (bool, error) {
	matched := false
	err := s.update(ctx, "unlock", func(next *core.AppState) bool {
		if next.PIN == "" || attempt != next.PIN {
			return false
		}
		matched = true
		next.IsLocked = false
		return true
	})
	return matched, err
}

// Import parses the payload as a full AppState and replaces the entire
// state, re-deriving the lock from the imported pin. A payload that does
// not parse is rejected and the existing state is left untouched.
func (s *Store) Import(ctx context.Context, payload []byte) error {
	var incoming core.AppState
	if err := json.Unmarshal(payload, &incoming); err != nil {
		s.logger.WarnContext(ctx, "Rejected malformed backup",
			applog.FieldOperation, applog.OpImport,
			applog.FieldError, err)
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	replacement := incoming.Normalize()

	err := s.update(ctx, "import", func(next *core.AppState) bool {
		*next = replacement
		return true
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Imported backup",
		applog.FieldOperation, applog.OpImport,
		"transactions", len(replacement.Transactions),
		"goals", len(replacement.Goals),
		"locked", replacement.IsLocked)
	return nil
}

// Export serializes the full in-memory state, including the live lock
// flag, and returns the dated backup filename.
func (s *Store) Export() ([]byte, string, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, "", fmt.Errorf("encode backup: %w", err)
	}
	filename := "fintrack_backup_" + s.now().Format("2006-01-02") + ".json"
	return data, filename, nil
}
