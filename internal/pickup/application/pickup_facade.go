package application

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/crudlab/internal/pickup/domain"
	sharedApp "github.com/davicafu/crudlab/internal/shared/application"
	sharedDomain "github.com/davicafu/crudlab/internal/shared/domain"
)

// PickupFacade is the CRUD facade instantiated for the pickup entity.
type PickupFacade = sharedApp.Facade[uuid.UUID, domain.PickupDTO, domain.PickupCreate, domain.PickupUpdate, domain.Pickup]

func NewPickupFacade(repo sharedDomain.Repository[domain.Pickup, uuid.UUID], log *zap.Logger, cfg sharedApp.Config) *PickupFacade {
	return sharedApp.New[uuid.UUID, domain.PickupDTO, domain.PickupCreate, domain.PickupUpdate, domain.Pickup](repo, domain.PickupMapper{}, log, cfg)
}
