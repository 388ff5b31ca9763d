package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/crudlab/internal/shared/domain"
	mongorepo "github.com/davicafu/crudlab/internal/shared/infra/db/mongodb"
	"github.com/davicafu/crudlab/internal/user/domain"
	userdb "github.com/davicafu/crudlab/internal/user/infra/outbound/db"
)

// userDoc keeps the bson tags out of the domain.
type userDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Name      string    `bson:"name"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func userCodec() mongorepo.Codec[domain.User, uuid.UUID] {
	return mongorepo.Codec[domain.User, uuid.UUID]{
		ToDoc: func(u *domain.User) any {
			return &userDoc{
				ID:        u.ID.String(),
				Email:     u.Email,
				Name:      u.Name,
				Role:      u.Role,
				CreatedAt: u.CreatedAt,
				UpdatedAt: u.UpdatedAt,
			}
		},
		NewDoc: func() any { return &userDoc{} },
		Entity: func(doc any) (*domain.User, error) {
			d, ok := doc.(*userDoc)
			if !ok {
				return nil, fmt.Errorf("user codec: unexpected document %T", doc)
			}
			id, err := uuid.Parse(d.ID)
			if err != nil {
				return nil, fmt.Errorf("user codec: %w", err)
			}
			return &domain.User{
				ID:        id,
				Email:     d.Email,
				Name:      d.Name,
				Role:      d.Role,
				CreatedAt: d.CreatedAt,
				UpdatedAt: d.UpdatedAt,
			}, nil
		},
		Key:    func(u *domain.User) uuid.UUID { return u.ID },
		KeyArg: func(id uuid.UUID) any { return id.String() },
		NewKey: uuid.New,
		New:    userdb.NewUserFromData,
	}
}

// NewUserRepository builds the document-store repository for users.
// Relationship filters ("pickups___...") are rejected here: the
// document store carries no relationship metadata.
func NewUserRepository(ctx context.Context, client *mongo.Client, dbName string, log *zap.Logger) (*mongorepo.Repository[domain.User, uuid.UUID], error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	coll := client.Database(dbName).Collection("users")

	// Same uniqueness guarantee the relational schema declares.
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not ensure email index: %w", err)
	}

	return mongorepo.New(coll, userdb.Schema(), userCodec(), log), nil
}

// Static check
var _ sharedDomain.Repository[domain.User, uuid.UUID] = (*mongorepo.Repository[domain.User, uuid.UUID])(nil)
