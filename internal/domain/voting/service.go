package voting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/election"
)

// How many times a cast retries on transient storage contention before
// surfacing Busy to the caller.
const maxCastAttempts = 3

type Service struct {
	repo         *Repository
	electionRepo *election.Repository
}

func NewService(repo *Repository, electionRepo *election.Repository) *Service {
	return &Service{repo: repo, electionRepo: electionRepo}
}

// RegisterCandidate adds a candidate to a draft or active election
func (s *Service) RegisterCandidate(ctx context.Context, organizerID, electionID uuid.UUID, position, name string) (*Candidate, error) {
	e, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, election.ErrNotOwner
	}
	if e.Status == election.StatusClosed {
		return nil, ErrElectionNotOpen
	}

	c := &Candidate{
		ID:         uuid.New(),
		ElectionID: electionID,
		Position:   position,
		Name:       name,
	}
	if err := s.repo.CreateCandidate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ImportVoters registers student IDs on the election's roll
func (s *Service) ImportVoters(ctx context.Context, organizerID, electionID uuid.UUID, studentIDs []string) (int64, error) {
	e, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return 0, err
	}
	if e.OrganizerID != organizerID {
		return 0, election.ErrNotOwner
	}
	return s.repo.AddAllowedVoters(ctx, electionID, studentIDs)
}

// ListCandidates returns an election's candidates
func (s *Service) ListCandidates(ctx context.Context, electionID uuid.UUID) ([]Candidate, error) {
	return s.repo.ListCandidates(ctx, electionID)
}

// CastVote accepts one ballot. Preconditions are checked up front but the
// database unique constraint remains the only arbiter of duplication; the
// checks just produce friendlier errors for the common rejections.
func (s *Service) CastVote(ctx context.Context, electionID uuid.UUID, voterID string, candidateID uuid.UUID, position string) (*Receipt, error) {
	e, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !e.OpenAt(now) {
		return nil, ErrElectionNotOpen
	}

	allowed, err := s.repo.IsAllowedVoter(ctx, electionID, voterID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	candidate, err := s.repo.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.ElectionID != electionID || candidate.Position != position {
		return nil, ErrInvalidCandidate
	}

	v := &Vote{
		ID:          uuid.New(),
		ElectionID:  electionID,
		VoterID:     voterID,
		CandidateID: candidateID,
		Position:    position,
		CreatedAt:   now,
	}

	for attempt := 1; ; attempt++ {
		err = s.repo.InsertVote(ctx, v)
		if err == nil {
			break
		}
		if errors.Is(err, ErrBusy) && attempt < maxCastAttempts {
			log.Debug().
				Int("attempt", attempt).
				Str("election_id", electionID.String()).
				Msg("vote insert contention, retrying")
			continue
		}
		return nil, err
	}

	log.Info().
		Str("election_id", electionID.String()).
		Str("position", position).
		Str("vote_id", v.ID.String()).
		Msg("vote cast")

	return &Receipt{VoteID: v.ID, CastAt: v.CreatedAt}, nil
}
