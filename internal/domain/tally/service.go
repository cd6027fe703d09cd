package tally

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/election"
)

type Service struct {
	repo         *Repository
	electionRepo *election.Repository
	cache        *Cache
}

func NewService(repo *Repository, electionRepo *election.Repository, cache *Cache) *Service {
	return &Service{repo: repo, electionRepo: electionRepo, cache: cache}
}

// Tally returns authoritative counts grouped from the vote ledger. Results
// for a whole election are served from the cache when one is configured;
// single-position queries are cheap enough to always hit the database.
func (s *Service) Tally(ctx context.Context, electionID uuid.UUID, position string) (map[string][]Row, error) {
	if _, err := s.electionRepo.GetByID(ctx, electionID); err != nil {
		return nil, err
	}

	if position != "" {
		rows, err := s.repo.CountByPosition(ctx, electionID, position)
		if err != nil {
			return nil, err
		}
		return map[string][]Row{position: rows}, nil
	}

	if cached, ok := s.cache.Get(ctx, electionID); ok {
		return cached, nil
	}

	rows, err := s.repo.CountAll(ctx, electionID)
	if err != nil {
		return nil, err
	}
	results := groupByPosition(rows)
	s.cache.Set(ctx, electionID, results)
	return results, nil
}

// Reconcile compares cached candidate counters against the grouped ledger.
// It only reports; repairing drifted counters is a separate explicit call.
func (s *Service) Reconcile(ctx context.Context, electionID uuid.UUID) (*ReconciliationReport, error) {
	if _, err := s.electionRepo.GetByID(ctx, electionID); err != nil {
		return nil, err
	}

	mismatches, candidates, err := s.repo.CachedVersusActual(ctx, electionID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		ElectionID: electionID,
		CheckedAt:  time.Now().UTC(),
		Candidates: candidates,
		Mismatches: mismatches,
	}
	if !report.Consistent() {
		log.Warn().
			Str("election_id", electionID.String()).
			Int("mismatches", len(mismatches)).
			Msg("cached vote counters drifted from ledger")
	}
	return report, nil
}

// Repair resets drifted counters to the ledger's grouped truth, then drops
// the cached results so the next read sees the corrected numbers.
func (s *Service) Repair(ctx context.Context, organizerID, electionID uuid.UUID) (int64, error) {
	e, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return 0, err
	}
	if e.OrganizerID != organizerID {
		return 0, election.ErrNotOwner
	}

	repaired, err := s.repo.RepairCounters(ctx, electionID)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, electionID)

	if repaired > 0 {
		log.Info().
			Str("election_id", electionID.String()).
			Int64("repaired", repaired).
			Msg("vote counters repaired")
	}
	return repaired, nil
}

// Snapshot assembles the audit document archived when an election closes
func (s *Service) Snapshot(ctx context.Context, electionID uuid.UUID) (*Snapshot, error) {
	rows, err := s.repo.CountAll(ctx, electionID)
	if err != nil {
		return nil, err
	}
	report, err := s.Reconcile(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ElectionID: electionID,
		TakenAt:    time.Now().UTC(),
		Results:    groupByPosition(rows),
		Report:     report,
	}, nil
}

func groupByPosition(rows []Row) map[string][]Row {
	results := make(map[string][]Row)
	for _, row := range rows {
		results[row.Position] = append(results[row.Position], row)
	}
	return results
}
