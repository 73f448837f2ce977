package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/retos/internal/db"
	"github.com/adanyl0v/retos/internal/models"
)

const challengeColumns = "id, titulo, descripcion, categoria, dificultad, estado, created_at"

type challengeServiceImpl struct {
	logger zerolog.Logger
	store  Store
}

func NewChallengeService(
	logger zerolog.Logger,
	store Store,
) ChallengeService {
	return &challengeServiceImpl{
		logger: logger,
		store:  store,
	}
}

func (s *challengeServiceImpl) ListChallenges(ctx context.Context, params ListChallengesParams) ([]*models.Challenge, error) {
	var (
		where []string
		args  []any
	)
	if params.Category != "" {
		args = append(args, params.Category)
		where = append(where, fmt.Sprintf("categoria = $%d", len(args)))
	}
	if params.Difficulty != "" {
		args = append(args, params.Difficulty)
		where = append(where, fmt.Sprintf("dificultad = $%d", len(args)))
	}

	var query strings.Builder
	query.WriteString("SELECT " + challengeColumns + " FROM retos")
	if len(where) > 0 {
		query.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	query.WriteString(" ORDER BY created_at DESC, id DESC")

	records, err := s.store.FetchAll(ctx, query.String(), args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select challenges")
		return nil, err
	}

	challenges := make([]*models.Challenge, 0, len(records))
	for _, record := range records {
		challenge, err := challengeFromRecord(record)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to map challenge")
			return nil, err
		}
		challenges = append(challenges, challenge)
	}

	s.logger.Debug().
		Int("count", len(challenges)).
		Str("category", params.Category).
		Str("difficulty", params.Difficulty).
		Msg("selected challenges")
	return challenges, nil
}

func (s *challengeServiceImpl) CreateChallenge(ctx context.Context, params CreateChallengeParams) (*models.Challenge, error) {
	status := params.Status
	if status == "" {
		status = models.StatusPending
	}

	const insertChallengeQuery = `
INSERT INTO retos (titulo,
                   descripcion,
                   categoria,
                   dificultad,
                   estado)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + challengeColumns
	record, err := s.store.Execute(
		ctx,
		insertChallengeQuery,
		params.Title,
		params.Description,
		params.Category,
		string(params.Difficulty),
		string(status),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert challenge")
		return nil, err
	}
	if record == nil {
		s.logger.Error().Msg("insert returned no challenge")
		return nil, fmt.Errorf("%w: insert returned no row", ErrMalformedRecord)
	}

	challenge, err := challengeFromRecord(record)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to map challenge")
		return nil, err
	}

	s.logger.Info().
		Int64("challenge_id", challenge.ID).
		Msg("created challenge")
	return challenge, nil
}

func (s *challengeServiceImpl) UpdateChallengeStatus(ctx context.Context, params UpdateChallengeStatusParams) (*models.Challenge, error) {
	const updateChallengeStatusQuery = `
UPDATE retos
SET estado = $1
WHERE id = $2
RETURNING ` + challengeColumns
	record, err := s.store.Execute(
		ctx,
		updateChallengeStatusQuery,
		string(params.Status),
		params.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("challenge_id", params.ID).
			Msg("failed to update challenge status")
		return nil, err
	}
	if record == nil {
		s.logger.Warn().
			Int64("challenge_id", params.ID).
			Msg("challenge not found")
		return nil, ErrChallengeNotFound
	}

	challenge, err := challengeFromRecord(record)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to map challenge")
		return nil, err
	}

	s.logger.Info().
		Int64("challenge_id", challenge.ID).
		Str("status", string(challenge.Status)).
		Msg("updated challenge status")
	return challenge, nil
}

func (s *challengeServiceImpl) DeleteChallenge(ctx context.Context, id int64) (int64, error) {
	const deleteChallengeQuery = `
DELETE FROM retos
WHERE id = $1
RETURNING id
`
	record, err := s.store.Execute(ctx, deleteChallengeQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("challenge_id", id).
			Msg("failed to delete challenge")
		return 0, err
	}
	if record == nil {
		s.logger.Warn().
			Int64("challenge_id", id).
			Msg("challenge not found")
		return 0, ErrChallengeNotFound
	}

	deletedID, err := recordField[int64](record, "id")
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Int64("challenge_id", deletedID).
		Msg("deleted challenge")
	return deletedID, nil
}

func (s *challengeServiceImpl) Ready(ctx context.Context) error {
	const readinessQuery = `SELECT 1 AS ready`
	_, err := s.store.FetchOne(ctx, readinessQuery)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("store is not ready")
		return err
	}
	return nil
}

func challengeFromRecord(record db.Record) (*models.Challenge, error) {
	var (
		c   models.Challenge
		err error
	)
	if c.ID, err = recordField[int64](record, "id"); err != nil {
		return nil, err
	}
	if c.Title, err = recordField[string](record, "titulo"); err != nil {
		return nil, err
	}
	if c.Description, err = recordField[string](record, "descripcion"); err != nil {
		return nil, err
	}
	if c.Category, err = recordField[string](record, "categoria"); err != nil {
		return nil, err
	}

	difficulty, err := recordField[string](record, "dificultad")
	if err != nil {
		return nil, err
	}
	c.Difficulty = models.Difficulty(difficulty)

	status, err := recordField[string](record, "estado")
	if err != nil {
		return nil, err
	}
	c.Status = models.Status(status)

	if c.CreatedAt, err = recordField[time.Time](record, "created_at"); err != nil {
		return nil, err
	}

	return &c, nil
}

func recordField[T any](record db.Record, column string) (T, error) {
	var zero T
	raw, ok := record[column]
	if !ok {
		return zero, fmt.Errorf("%w: missing column %q", ErrMalformedRecord, column)
	}

	value, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: column %q has type %T", ErrMalformedRecord, column, raw)
	}
	return value, nil
}
