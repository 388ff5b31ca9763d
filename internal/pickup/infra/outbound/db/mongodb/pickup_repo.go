package mongodb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	pickupdb "github.com/davicafu/crudlab/internal/pickup/infra/outbound/db"
	"github.com/davicafu/crudlab/internal/pickup/domain"
	sharedDomain "github.com/davicafu/crudlab/internal/shared/domain"
	mongorepo "github.com/davicafu/crudlab/internal/shared/infra/db/mongodb"
)

type pickupDoc struct {
	ID          string     `bson:"_id"`
	UserID      string     `bson:"user_id"`
	Liters      float64    `bson:"liters"`
	Status      string     `bson:"status"`
	CollectedAt *time.Time `bson:"collected_at,omitempty"`
	Note        string     `bson:"note"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func pickupCodec() mongorepo.Codec[domain.Pickup, uuid.UUID] {
	return mongorepo.Codec[domain.Pickup, uuid.UUID]{
		ToDoc: func(p *domain.Pickup) any {
			return &pickupDoc{
				ID:          p.ID.String(),
				UserID:      p.UserID.String(),
				Liters:      p.Liters,
				Status:      p.Status,
				CollectedAt: p.CollectedAt,
				Note:        p.Note,
				CreatedAt:   p.CreatedAt,
				UpdatedAt:   p.UpdatedAt,
			}
		},
		NewDoc: func() any { return &pickupDoc{} },
		Entity: func(doc any) (*domain.Pickup, error) {
			d, ok := doc.(*pickupDoc)
			if !ok {
				return nil, fmt.Errorf("pickup codec: unexpected document %T", doc)
			}
			id, err := uuid.Parse(d.ID)
			if err != nil {
				return nil, fmt.Errorf("pickup codec: %w", err)
			}
			userID, err := uuid.Parse(d.UserID)
			if err != nil {
				return nil, fmt.Errorf("pickup codec: %w", err)
			}
			return &domain.Pickup{
				ID:          id,
				UserID:      userID,
				Liters:      d.Liters,
				Status:      d.Status,
				CollectedAt: d.CollectedAt,
				Note:        d.Note,
				CreatedAt:   d.CreatedAt,
				UpdatedAt:   d.UpdatedAt,
			}, nil
		},
		Key:    func(p *domain.Pickup) uuid.UUID { return p.ID },
		KeyArg: func(id uuid.UUID) any { return id.String() },
		NewKey: uuid.New,
		New:    pickupdb.NewPickupFromData,
	}
}

// NewPickupRepository builds the document-store repository for pickups.
// Owner-qualified filters ("user___...") are rejected by the store: the
// documents carry no relationship metadata.
func NewPickupRepository(client *mongo.Client, dbName string, log *zap.Logger) *mongorepo.Repository[domain.Pickup, uuid.UUID] {
	coll := client.Database(dbName).Collection("pickups")
	return mongorepo.New(coll, pickupdb.Schema(), pickupCodec(), log)
}

// Static check
var _ sharedDomain.Repository[domain.Pickup, uuid.UUID] = (*mongorepo.Repository[domain.Pickup, uuid.UUID])(nil)
