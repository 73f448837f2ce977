package services

import (
	"context"
	"errors"

	"github.com/adanyl0v/retos/internal/db"
	"github.com/adanyl0v/retos/internal/models"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrMalformedRecord   = errors.New("malformed challenge record")
)

// Store is the data-access surface the services depend on.
// It is implemented by *db.DB.
type Store interface {
	FetchAll(ctx context.Context, query string, args ...any) ([]db.Record, error)
	FetchOne(ctx context.Context, query string, args ...any) (db.Record, error)
	Execute(ctx context.Context, query string, args ...any) (db.Record, error)
}

type ChallengeService interface {
	// ListChallenges returns the challenges matching every non-empty
	// filter, newest first. Ties on creation time are broken by the
	// larger id first.
	ListChallenges(ctx context.Context, params ListChallengesParams) ([]*models.Challenge, error)

	// CreateChallenge inserts a challenge and returns it as stored,
	// including the generated id and creation time.
	//
	// The params must already be normalized and validated.
	CreateChallenge(ctx context.Context, params CreateChallengeParams) (*models.Challenge, error)

	// UpdateChallengeStatus changes only the status of the challenge.
	//
	// It returns ErrChallengeNotFound if no challenge has the given id.
	UpdateChallengeStatus(ctx context.Context, params UpdateChallengeStatusParams) (*models.Challenge, error)

	// DeleteChallenge permanently removes the challenge and returns its id.
	//
	// It returns ErrChallengeNotFound if no challenge has the given id.
	DeleteChallenge(ctx context.Context, id int64) (int64, error)

	// Ready reports whether the store can serve queries.
	Ready(ctx context.Context) error
}

type ListChallengesParams struct {
	Category   string
	Difficulty string
}

type CreateChallengeParams struct {
	Title       string
	Description string
	Category    string
	Difficulty  models.Difficulty
	Status      models.Status
}

type UpdateChallengeStatusParams struct {
	ID     int64
	Status models.Status
}
