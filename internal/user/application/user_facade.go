package application

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/crudlab/internal/shared/application"
	sharedDomain "github.com/davicafu/crudlab/internal/shared/domain"
	"github.com/davicafu/crudlab/internal/user/domain"
)

// UserFacade is the CRUD facade instantiated for the user entity.
type UserFacade = sharedApp.Facade[uuid.UUID, domain.UserDTO, domain.UserCreate, domain.UserUpdate, domain.User]

func NewUserFacade(repo sharedDomain.Repository[domain.User, uuid.UUID], log *zap.Logger, cfg sharedApp.Config) *UserFacade {
	return sharedApp.New[uuid.UUID, domain.UserDTO, domain.UserCreate, domain.UserUpdate, domain.User](repo, domain.UserMapper{}, log, cfg)
}
