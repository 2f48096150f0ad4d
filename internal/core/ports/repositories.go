package ports

import (
	"context"

	"github.com/samirrijal/placeshare/internal/core/domain"
)

// PlaceRepository reads and updates single places.
// Inserts and deletes go through PlaceTx so the owner's list stays in sync.
type PlaceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	GetWithCreator(ctx context.Context, id string) (*domain.Place, *domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Place, error)
	Update(ctx context.Context, place *domain.Place) error
}

// UserRepository persists users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// PlaceTx is the set of writes that must commit or roll back together.
type PlaceTx interface {
	// LockUser loads a user and holds it until the transaction ends.
	LockUser(ctx context.Context, id string) (*domain.User, error)
	InsertPlace(ctx context.Context, place *domain.Place) error
	DeletePlace(ctx context.Context, id string) error
	SaveUserPlaces(ctx context.Context, userID string, placeIDs []string) error
}

// Transactor runs fn inside a single store transaction. fn's error rolls the
// transaction back; a nil return commits it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx PlaceTx) error) error
}
