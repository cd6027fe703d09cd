package election

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/ledger"
)

type Service struct {
	repo       *Repository
	ledgerRepo *ledger.Repository
	gate       *Gate
}

func NewService(repo *Repository, ledgerRepo *ledger.Repository, gate *Gate) *Service {
	return &Service{repo: repo, ledgerRepo: ledgerRepo, gate: gate}
}

// Create inserts a draft election. No credit is touched until activation.
func (s *Service) Create(ctx context.Context, organizerID uuid.UUID, req CreateRequest) (*Election, error) {
	if err := s.ledgerRepo.EnsureAccount(ctx, organizerID); err != nil {
		return nil, err
	}

	e := &Election{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Title:       req.Title,
		PlanType:    req.PlanType,
		VoterLimit:  req.VoterLimit,
		Status:      StatusDraft,
	}
	if e.PlanType == "" {
		e.PlanType = "standard"
	}
	if req.OrganizationID != nil {
		e.OrganizationID = uuid.NullUUID{UUID: *req.OrganizationID, Valid: true}
	}
	if req.StartsAt != nil {
		e.StartsAt = sql.NullTime{Time: *req.StartsAt, Valid: true}
	}
	if req.EndsAt != nil {
		e.EndsAt = sql.NullTime{Time: *req.EndsAt, Valid: true}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, e.ID)
}

// Get returns an election owned by the caller
func (s *Service) Get(ctx context.Context, organizerID, electionID uuid.UUID) (*Election, error) {
	e, err := s.repo.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, ErrNotOwner
	}
	return e, nil
}

// List returns the caller's elections
func (s *Service) List(ctx context.Context, organizerID uuid.UUID, limit, offset int) ([]Election, error) {
	return s.repo.ListByOrganizer(ctx, organizerID, limit, offset)
}

// Activate authorizes credit for the election's voter limit and flips it
// draft->active. If the status flip loses a race the debit is released, so
// a failed activation never leaks credit.
func (s *Service) Activate(ctx context.Context, organizerID, electionID uuid.UUID) (*Authorization, error) {
	e, err := s.Get(ctx, organizerID, electionID)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusDraft {
		return nil, ErrNotDraft
	}

	auth, err := s.gate.Authorize(ctx, organizerID, e.VoterLimit)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkActive(ctx, electionID, *auth); err != nil {
		if relErr := s.gate.Release(ctx, organizerID, *auth); relErr != nil {
			log.Error().
				Err(relErr).
				Str("election_id", electionID.String()).
				Str("source", auth.Source).
				Int64("amount", auth.Amount).
				Msg("failed to release credit after activation race")
		}
		return nil, err
	}

	log.Info().
		Str("election_id", electionID.String()).
		Str("source", auth.Source).
		Int64("amount", auth.Amount).
		Msg("election activated")

	return auth, nil
}

// Cancel closes an active election that has no ballots yet and releases the
// credit its activation debited.
func (s *Service) Cancel(ctx context.Context, organizerID, electionID uuid.UUID) error {
	e, err := s.Get(ctx, organizerID, electionID)
	if err != nil {
		return err
	}
	if e.Status != StatusActive {
		return ErrNotActive
	}

	hasVotes, err := s.repo.HasVotes(ctx, electionID)
	if err != nil {
		return err
	}
	if hasVotes {
		return ErrHasVotes
	}

	if err := s.repo.MarkClosed(ctx, electionID); err != nil {
		return err
	}

	if e.CreditSource.Valid && e.DebitedAmount > 0 {
		auth := Authorization{Source: e.CreditSource.String, Amount: e.DebitedAmount}
		if err := s.gate.Release(ctx, organizerID, auth); err != nil {
			// The election is closed either way; the stuck credit needs an
			// operator, not a crash.
			log.Error().
				Err(err).
				Str("election_id", electionID.String()).
				Str("source", auth.Source).
				Int64("amount", auth.Amount).
				Msg("failed to release credit on cancellation")
			return err
		}
	}

	log.Info().Str("election_id", electionID.String()).Msg("election cancelled")
	return nil
}
