package election_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voteflow/voteflow-api/internal/domain/election"
	"github.com/voteflow/voteflow-api/internal/domain/ledger"
)

func newService(db *sqlx.DB) (*election.Service, *ledger.Repository) {
	ledgerRepo := ledger.NewRepository(db)
	repo := election.NewRepository(db)
	gate := election.NewGate(ledgerRepo, nil)
	return election.NewService(repo, ledgerRepo, gate), ledgerRepo
}

/* =========================
   Test 1: Activate Debits Once
   ========================= */

func TestActivateDebitsAndRecordsSource(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	svc, ledgerRepo := newService(db)
	organizerID := createAccountWithBalance(t, db, ledgerRepo, 100)

	e, err := svc.Create(context.Background(), organizerID, election.CreateRequest{
		Title:      "SRC President 2026",
		VoterLimit: 80,
	})
	requireNoError(t, err)

	auth, err := svc.Activate(context.Background(), organizerID, e.ID)
	requireNoError(t, err)
	if auth.Source != election.SourceBalance || auth.Amount != 80 {
		t.Fatalf("expected balance debit of 80, got %s/%d", auth.Source, auth.Amount)
	}

	balance, err := ledgerRepo.GetBalance(context.Background(), organizerID)
	requireNoError(t, err)
	if balance != 20 {
		t.Fatalf("expected balance 20, got %d", balance)
	}

	got, err := svc.Get(context.Background(), organizerID, e.ID)
	requireNoError(t, err)
	if got.Status != election.StatusActive {
		t.Fatalf("expected active, got %s", got.Status)
	}
	if !got.CreditSource.Valid || got.CreditSource.String != election.SourceBalance || got.DebitedAmount != 80 {
		t.Fatalf("expected recorded debit balance/80, got %v/%d", got.CreditSource, got.DebitedAmount)
	}
}

/* =========================
   Test 2: Activate Requires Draft
   ========================= */

func TestActivateTwiceFails(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	svc, ledgerRepo := newService(db)
	organizerID := createAccountWithBalance(t, db, ledgerRepo, 200)

	e, err := svc.Create(context.Background(), organizerID, election.CreateRequest{
		Title:      "Hall Week Committee",
		VoterLimit: 50,
	})
	requireNoError(t, err)

	_, err = svc.Activate(context.Background(), organizerID, e.ID)
	requireNoError(t, err)

	_, err = svc.Activate(context.Background(), organizerID, e.ID)
	if !errors.Is(err, election.ErrNotDraft) {
		t.Fatalf("expected ErrNotDraft, got %v", err)
	}

	// The second attempt must not debit again.
	balance, err := ledgerRepo.GetBalance(context.Background(), organizerID)
	requireNoError(t, err)
	if balance != 150 {
		t.Fatalf("expected balance 150, got %d", balance)
	}
}

/* =========================
   Test 3: Insufficient Credit
   ========================= */

func TestActivateInsufficientCredit(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	svc, ledgerRepo := newService(db)
	organizerID := createAccountWithBalance(t, db, ledgerRepo, 30)

	e, err := svc.Create(context.Background(), organizerID, election.CreateRequest{
		Title:      "Oversubscribed",
		VoterLimit: 31,
	})
	requireNoError(t, err)

	_, err = svc.Activate(context.Background(), organizerID, e.ID)
	if !errors.Is(err, election.ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}

	got, err := svc.Get(context.Background(), organizerID, e.ID)
	requireNoError(t, err)
	if got.Status != election.StatusDraft {
		t.Fatalf("expected election still draft, got %s", got.Status)
	}
}

/* =========================
   Test 4: Cancel Releases Credit
   ========================= */

func TestCancelReleasesCredit(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	svc, ledgerRepo := newService(db)
	organizerID := createAccountWithBalance(t, db, ledgerRepo, 40)

	e, err := svc.Create(context.Background(), organizerID, election.CreateRequest{
		Title:      "Cancelled Before Votes",
		VoterLimit: 40,
	})
	requireNoError(t, err)

	_, err = svc.Activate(context.Background(), organizerID, e.ID)
	requireNoError(t, err)

	requireNoError(t, svc.Cancel(context.Background(), organizerID, e.ID))

	balance, err := ledgerRepo.GetBalance(context.Background(), organizerID)
	requireNoError(t, err)
	if balance != 40 {
		t.Fatalf("expected full refund to 40, got %d", balance)
	}

	got, err := svc.Get(context.Background(), organizerID, e.ID)
	requireNoError(t, err)
	if got.Status != election.StatusClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}
}

/* =========================
   Test 5: Cancel Blocked By Votes
   ========================= */

func TestCancelBlockedByExistingVotes(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	svc, ledgerRepo := newService(db)
	organizerID := createAccountWithBalance(t, db, ledgerRepo, 40)

	e, err := svc.Create(context.Background(), organizerID, election.CreateRequest{
		Title:      "Has Ballots",
		VoterLimit: 40,
	})
	requireNoError(t, err)
	_, err = svc.Activate(context.Background(), organizerID, e.ID)
	requireNoError(t, err)

	candidateID := uuid.New()
	_, err = db.Exec(`
		INSERT INTO candidates (id, election_id, position, name, vote_count)
		VALUES ($1, $2, 'president', 'Ama Mensah', 1)
	`, candidateID, e.ID)
	requireNoError(t, err)
	_, err = db.Exec(`
		INSERT INTO votes (id, election_id, voter_id, candidate_id, position)
		VALUES ($1, $2, 'STU-001', $3, 'president')
	`, uuid.New(), e.ID, candidateID)
	requireNoError(t, err)

	err = svc.Cancel(context.Background(), organizerID, e.ID)
	if !errors.Is(err, election.ErrHasVotes) {
		t.Fatalf("expected ErrHasVotes, got %v", err)
	}
}

/* =========================
   Test 6: Ownership
   ========================= */

func TestActivateNotOwner(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	svc, ledgerRepo := newService(db)
	organizerID := createAccountWithBalance(t, db, ledgerRepo, 50)
	strangerID := createAccountWithBalance(t, db, ledgerRepo, 50)

	e, err := svc.Create(context.Background(), organizerID, election.CreateRequest{
		Title:      "Someone Else's Election",
		VoterLimit: 10,
	})
	requireNoError(t, err)

	_, err = svc.Activate(context.Background(), strangerID, e.ID)
	if !errors.Is(err, election.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}
