package author

import (
	"context"

	"libraryapi/internal/listing"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, crit listing.Criteria, limit, offset int) ([]Author, int, error) {
	return s.repo.List(ctx, crit, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (Author, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, a *Author) error {
	return s.repo.Create(ctx, a)
}

func (s *Service) Update(ctx context.Context, a *Author) error {
	return s.repo.Update(ctx, a)
}

func (s *Service) Patch(ctx context.Context, id int64, p Patch) (Author, error) {
	return s.repo.Patch(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
