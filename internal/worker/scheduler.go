package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/election"
	"github.com/voteflow/voteflow-api/internal/domain/tally"
	"github.com/voteflow/voteflow-api/internal/pkg/storage"
)

const jobTimeout = 2 * time.Minute

// Scheduler runs the background sweeps: closing elections whose end time has
// passed (archiving their final results) and a nightly reconciliation pass
// over recently closed elections. The archive store may be nil, in which
// case closed elections are only logged.
type Scheduler struct {
	cron         *cron.Cron
	electionRepo *election.Repository
	tallySvc     *tally.Service
	archive      *storage.ArchiveStore
}

func NewScheduler(electionRepo *election.Repository, tallySvc *tally.Service, archive *storage.ArchiveStore) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		electionRepo: electionRepo,
		tallySvc:     tallySvc,
		archive:      archive,
	}
}

// Start registers the sweeps and starts the cron loop
func (s *Scheduler) Start(closeSpec, reconcileSpec string) error {
	if _, err := s.cron.AddFunc(closeSpec, s.closeSweep); err != nil {
		return fmt.Errorf("schedule close sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(reconcileSpec, s.reconcileSweep); err != nil {
		return fmt.Errorf("schedule reconcile sweep: %w", err)
	}
	s.cron.Start()
	log.Info().
		Str("close_spec", closeSpec).
		Str("reconcile_spec", reconcileSpec).
		Msg("background scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("background scheduler stopped")
}

// closeSweep closes every active election whose end time has passed and
// archives a final results snapshot for each.
func (s *Scheduler) closeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	closed, err := s.electionRepo.CloseExpired(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("close sweep failed")
		return
	}

	for _, e := range closed {
		log.Info().
			Str("election_id", e.ID.String()).
			Str("title", e.Title).
			Msg("election closed")
		s.archiveSnapshot(ctx, e.ID)
	}
}

func (s *Scheduler) archiveSnapshot(ctx context.Context, electionID uuid.UUID) {
	snapshot, err := s.tallySvc.Snapshot(ctx, electionID)
	if err != nil {
		log.Error().Err(err).
			Str("election_id", electionID.String()).
			Msg("snapshot for closed election failed")
		return
	}

	if !snapshot.Report.Consistent() {
		log.Warn().
			Str("election_id", electionID.String()).
			Int("mismatches", len(snapshot.Report.Mismatches)).
			Msg("election closed with inconsistent counters")
	}

	if s.archive == nil {
		return
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		log.Error().Err(err).Msg("snapshot marshal failed")
		return
	}
	key := fmt.Sprintf("elections/%s/%s.json", electionID, snapshot.TakenAt.Format("20060102T150405Z"))
	if err := s.archive.Put(ctx, key, body, "application/json"); err != nil {
		log.Error().Err(err).
			Str("election_id", electionID.String()).
			Str("key", key).
			Msg("snapshot archive upload failed")
		return
	}
	log.Info().
		Str("election_id", electionID.String()).
		Str("key", key).
		Msg("results snapshot archived")
}

// reconcileSweep re-checks counters on elections closed in the last day.
// Drift is reported, never repaired automatically.
func (s *Scheduler) reconcileSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	elections, err := s.electionRepo.ListClosedSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Error().Err(err).Msg("reconcile sweep failed")
		return
	}

	for _, e := range elections {
		report, err := s.tallySvc.Reconcile(ctx, e.ID)
		if err != nil {
			log.Error().Err(err).
				Str("election_id", e.ID.String()).
				Msg("reconcile failed")
			continue
		}
		if !report.Consistent() {
			log.Warn().
				Str("election_id", e.ID.String()).
				Int("mismatches", len(report.Mismatches)).
				Msg("reconciliation found drifted counters")
		}
	}
	log.Debug().Int("elections", len(elections)).Msg("reconcile sweep done")
}
