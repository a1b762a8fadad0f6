package profile

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/validation"
)

//go:generate mockgen -source=$GOFILE -destination=repo_mocks_test.go -package=profile_test

type profilesRepo interface {
	GetOrCreate(ctx context.Context, userID int) (*Profile, error)
	Upsert(ctx context.Context, userID int, params UpdateParams) error
}

type Service struct {
	repo profilesRepo
}

func NewService(repo profilesRepo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) Get(ctx context.Context, userID int) (*Profile, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// Update validates params before anything is written.
func (s *Service) Update(ctx context.Context, userID int, params UpdateParams) error {
	if err := validation.Struct(params); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, userID, params); err != nil {
		return err
	}
	log.Debugf("profile of user %d updated", userID)
	return nil
}
