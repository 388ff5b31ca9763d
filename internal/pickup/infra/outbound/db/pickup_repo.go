package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/crudlab/internal/pickup/domain"
	sharedDomain "github.com/davicafu/crudlab/internal/shared/domain"
	"github.com/davicafu/crudlab/internal/shared/infra/db/sqlrepo"
)

// ---------------- Table ----------------

const createPickupsTable = `
CREATE TABLE IF NOT EXISTS pickups (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	liters       REAL NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT '',
	collected_at TIMESTAMP,
	note         TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
)`

// Init creates the pickups table if missing. The users table must exist
// first.
func Init(pool *sql.DB) error {
	_, err := pool.Exec(createPickupsTable)
	return err
}

// ---------------- Schema ----------------

var pickupColumns = []string{"id", "user_id", "liters", "status", "collected_at", "note", "created_at", "updated_at"}

// ownerColumns are hydrated by the join; usersRef additionally lists
// the columns a "user___field" filter may reference.
var ownerColumns = []string{"id", "email", "name"}

var usersRef = sharedDomain.NewSchema("users", "user",
	[]string{"id", "email", "name", "role", "created_at", "updated_at"})

var pickupSchema = sharedDomain.NewSchema("pickups", "pickup", pickupColumns,
	sharedDomain.Relation{
		Name:          "user",
		Kind:          sharedDomain.LoadJoined,
		Table:         "users",
		LocalColumn:   "user_id",
		ForeignColumn: "id",
		Columns:       ownerColumns,
		Ref:           func() *sharedDomain.Schema { return usersRef },
		NewJoinedRow:  func() sharedDomain.JoinedRow { return &ownerRow{} },
	},
)

func Schema() *sharedDomain.Schema { return pickupSchema }

// ---------------- Row scanning ----------------

type pickupRow struct {
	id          string
	userID      string
	liters      float64
	status      string
	collectedAt sql.NullTime
	note        string
	createdAt   time.Time
	updatedAt   time.Time
}

func (r *pickupRow) Dest() []any {
	return []any{&r.id, &r.userID, &r.liters, &r.status, &r.collectedAt, &r.note, &r.createdAt, &r.updatedAt}
}

func (r *pickupRow) Entity() (*domain.Pickup, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return nil, fmt.Errorf("pickup row: %w", err)
	}
	userID, err := uuid.Parse(r.userID)
	if err != nil {
		return nil, fmt.Errorf("pickup row: %w", err)
	}
	var collected *time.Time
	if r.collectedAt.Valid {
		t := r.collectedAt.Time
		collected = &t
	}
	return &domain.Pickup{
		ID:          id,
		UserID:      userID,
		Liters:      r.liters,
		Status:      r.status,
		CollectedAt: collected,
		Note:        r.note,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}, nil
}

// ownerRow scans the left-joined user columns; every destination
// tolerates NULL because the join may not match.
type ownerRow struct {
	id    sql.NullString
	email sql.NullString
	name  sql.NullString
}

func (r *ownerRow) Dest() []any {
	return []any{&r.id, &r.email, &r.name}
}

func (r *ownerRow) Attach(parent any) error {
	pickup, ok := parent.(*domain.Pickup)
	if !ok {
		return fmt.Errorf("user relation: unexpected parent %T", parent)
	}
	if !r.id.Valid {
		return nil // no matching user row
	}
	id, err := uuid.Parse(r.id.String)
	if err != nil {
		return fmt.Errorf("owner row: %w", err)
	}
	pickup.Owner = &domain.Owner{
		ID:    id,
		Email: r.email.String,
		Name:  r.name.String,
	}
	return nil
}

// ---------------- Binder & repository ----------------

func pickupBinder() sqlrepo.Binder[domain.Pickup, uuid.UUID] {
	return sqlrepo.Binder[domain.Pickup, uuid.UUID]{
		NewRow: func() sharedDomain.EntityRow[domain.Pickup] { return &pickupRow{} },
		Values: func(p *domain.Pickup) map[string]any {
			return map[string]any{
				"id":           p.ID.String(),
				"user_id":      p.UserID.String(),
				"liters":       p.Liters,
				"status":       p.Status,
				"collected_at": p.CollectedAt,
				"note":         p.Note,
				"created_at":   p.CreatedAt,
				"updated_at":   p.UpdatedAt,
			}
		},
		Key:    func(p *domain.Pickup) uuid.UUID { return p.ID },
		KeyArg: func(id uuid.UUID) any { return id.String() },
		NewKey: uuid.New,
		New:    NewPickupFromData,
	}
}

// NewPickupFromData builds a pickup from raw column values. Shared with
// the document-store adapter, which persists the same shape.
func NewPickupFromData(data map[string]any) (*domain.Pickup, error) {
	id, err := sqlrepo.UUIDValue(data["id"])
	if err != nil {
		return nil, err
	}
	userID, err := sqlrepo.UUIDValue(data["user_id"])
	if err != nil {
		return nil, err
	}
	liters, err := sqlrepo.FloatValue(data["liters"])
	if err != nil {
		return nil, err
	}
	status, err := sqlrepo.StringValue(data["status"])
	if err != nil {
		return nil, err
	}
	collected, err := sqlrepo.TimePtrValue(data["collected_at"])
	if err != nil {
		return nil, err
	}
	note, err := sqlrepo.StringValue(data["note"])
	if err != nil {
		return nil, err
	}
	createdAt, err := sqlrepo.TimeValue(data["created_at"])
	if err != nil {
		return nil, err
	}
	updatedAt, err := sqlrepo.TimeValue(data["updated_at"])
	if err != nil {
		return nil, err
	}
	return &domain.Pickup{
		ID:          id,
		UserID:      userID,
		Liters:      liters,
		Status:      status,
		CollectedAt: collected,
		Note:        note,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// NewPickupRepository builds the SQL repository for pickups on the
// given pool and dialect.
func NewPickupRepository(pool *sql.DB, dialect sqlrepo.Dialect, log *zap.Logger) *sqlrepo.Repository[domain.Pickup, uuid.UUID] {
	return sqlrepo.New(pool, dialect, pickupSchema, pickupBinder(), log)
}

// Static check
var _ sharedDomain.Repository[domain.Pickup, uuid.UUID] = (*sqlrepo.Repository[domain.Pickup, uuid.UUID])(nil)
