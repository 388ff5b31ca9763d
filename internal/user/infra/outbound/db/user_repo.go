package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/crudlab/internal/shared/domain"
	"github.com/davicafu/crudlab/internal/shared/infra/db/sqlrepo"
	"github.com/davicafu/crudlab/internal/user/domain"
)

// ---------------- Table ----------------

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Init creates the users table if missing.
func Init(pool *sql.DB) error {
	_, err := pool.Exec(createUsersTable)
	return err
}

// ---------------- Schema ----------------

var userColumns = []string{"id", "email", "name", "role", "created_at", "updated_at"}

// Columns of the pickups table reachable through the "pickups"
// relation. The relation's filter fields are validated against this
// list, so the two packages stay decoupled.
var pickupColumns = []string{"id", "user_id", "liters", "status", "collected_at", "note"}

var pickupsRef = sharedDomain.NewSchema("pickups", "pickup", pickupColumns)

var userSchema = sharedDomain.NewSchema("users", "user", userColumns,
	sharedDomain.Relation{
		Name:          "pickups",
		Kind:          sharedDomain.LoadSelectIn,
		Table:         "pickups",
		LocalColumn:   "id",
		ForeignColumn: "user_id",
		Columns:       pickupColumns,
		Ref:           func() *sharedDomain.Schema { return pickupsRef },
		NewChildRow:   func() sharedDomain.ChildRow { return &pickupChildRow{} },
	},
)

// Schema exposes the user field registry for wiring and tests.
func Schema() *sharedDomain.Schema { return userSchema }

// ---------------- Row scanning ----------------

type userRow struct {
	id        string
	email     string
	name      string
	role      string
	createdAt time.Time
	updatedAt time.Time
}

func (r *userRow) Dest() []any {
	return []any{&r.id, &r.email, &r.name, &r.role, &r.createdAt, &r.updatedAt}
}

func (r *userRow) Entity() (*domain.User, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return nil, fmt.Errorf("user row: %w", err)
	}
	return &domain.User{
		ID:        id,
		Email:     r.email,
		Name:      r.name,
		Role:      r.role,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}, nil
}

type pickupChildRow struct {
	id          string
	userID      string
	liters      float64
	status      string
	collectedAt sql.NullTime
	note        string
}

func (r *pickupChildRow) Dest() []any {
	return []any{&r.id, &r.userID, &r.liters, &r.status, &r.collectedAt, &r.note}
}

func (r *pickupChildRow) ParentKey() string { return r.userID }

func (r *pickupChildRow) Attach(parent any) error {
	user, ok := parent.(*domain.User)
	if !ok {
		return fmt.Errorf("pickups relation: unexpected parent %T", parent)
	}
	id, err := uuid.Parse(r.id)
	if err != nil {
		return fmt.Errorf("pickup row: %w", err)
	}
	userID, err := uuid.Parse(r.userID)
	if err != nil {
		return fmt.Errorf("pickup row: %w", err)
	}
	var collected *time.Time
	if r.collectedAt.Valid {
		t := r.collectedAt.Time
		collected = &t
	}
	user.Pickups = append(user.Pickups, domain.Pickup{
		ID:          id,
		UserID:      userID,
		Liters:      r.liters,
		Status:      r.status,
		CollectedAt: collected,
		Note:        r.note,
	})
	return nil
}

// ---------------- Binder & repository ----------------

func userBinder() sqlrepo.Binder[domain.User, uuid.UUID] {
	return sqlrepo.Binder[domain.User, uuid.UUID]{
		NewRow: func() sharedDomain.EntityRow[domain.User] { return &userRow{} },
		Values: func(u *domain.User) map[string]any {
			return map[string]any{
				"id":         u.ID.String(),
				"email":      u.Email,
				"name":       u.Name,
				"role":       u.Role,
				"created_at": u.CreatedAt,
				"updated_at": u.UpdatedAt,
			}
		},
		Key:    func(u *domain.User) uuid.UUID { return u.ID },
		KeyArg: func(id uuid.UUID) any { return id.String() },
		NewKey: uuid.New,
		New:    NewUserFromData,
	}
}

// NewUserFromData builds a user from a defaulted data map. Shared with
// the document-store adapter.
func NewUserFromData(data map[string]any) (*domain.User, error) {
	id, err := sqlrepo.UUIDValue(data["id"])
	if err != nil {
		return nil, err
	}
	email, err := sqlrepo.StringValue(data["email"])
	if err != nil {
		return nil, err
	}
	name, err := sqlrepo.StringValue(data["name"])
	if err != nil {
		return nil, err
	}
	role, err := sqlrepo.StringValue(data["role"])
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
	return &domain.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// NewUserRepository builds the SQL repository for users on the given
// pool and dialect.
func NewUserRepository(pool *sql.DB, dialect sqlrepo.Dialect, log *zap.Logger) *sqlrepo.Repository[domain.User, uuid.UUID] {
	return sqlrepo.New(pool, dialect, userSchema, userBinder(), log)
}

// Static check
var _ sharedDomain.Repository[domain.User, uuid.UUID] = (*sqlrepo.Repository[domain.User, uuid.UUID])(nil)
