package book

import (
	"context"

	"libraryapi/internal/listing"
)

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, crit listing.Criteria, limit, offset int) ([]Book, int, error)
	Get(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Patch(ctx context.Context, id int64, p Patch) (Book, error)
	Delete(ctx context.Context, id int64) error
}
