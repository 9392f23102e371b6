package address

import (
	"context"
)

type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) GetAddresses(ctx context.Context) ([]Address, error) {
	return s.repo.GetAddresses(ctx)
}

// Find returns the caller's address with the given id.
func (s *Service) Find(ctx context.Context, id string) (Address, error) {
	addrs, err := s.repo.GetAddresses(ctx)
	if err != nil {
		return Address{}, err
	}
	for _, a := range addrs {
		if a.ID == id {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}
