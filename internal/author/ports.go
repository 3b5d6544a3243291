package author

import (
	"context"

	"libraryapi/internal/listing"
)

// Repository defines the contract for author data storage.
type Repository interface {
	List(ctx context.Context, crit listing.Criteria, limit, offset int) ([]Author, int, error)
	Get(ctx context.Context, id int64) (Author, error)
	Create(ctx context.Context, a *Author) error
	Update(ctx context.Context, a *Author) error
	Patch(ctx context.Context, id int64, p Patch) (Author, error)
	Delete(ctx context.Context, id int64) error
}
