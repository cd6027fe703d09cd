package election

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/ledger"
)

// Credit source names, also persisted on the election row
const (
	SourceUnlimited = "unlimited"
	SourceBalance   = "balance"
	SourceLegacy    = "legacy"
)

// creditSource is one way of covering an election's voter limit. TryDebit
// returns (nil, nil) when this source cannot cover the request, letting the
// gate fall through to the next source in priority order.
type creditSource interface {
	Name() string
	TryDebit(ctx context.Context, accountID uuid.UUID, voterLimit int64) (*Authorization, error)
	Release(ctx context.Context, accountID uuid.UUID, amount int64) error
}

// Gate decides feasibility and source of credit debit at activation time.
// The priority order among sources is configuration, not code: the
// historical three-tier pricing model gives no authoritative precedence.
type Gate struct {
	sources []creditSource
}

// NewGate builds a gate consulting sources in the given order. Unknown
// names are skipped with a warning; an empty order falls back to
// unlimited, balance, legacy.
func NewGate(repo *ledger.Repository, order []string) *Gate {
	if len(order) == 0 {
		order = []string{SourceUnlimited, SourceBalance, SourceLegacy}
	}

	sources := make([]creditSource, 0, len(order))
	for _, name := range order {
		switch name {
		case SourceUnlimited:
			sources = append(sources, &unlimitedSource{repo: repo})
		case SourceBalance:
			sources = append(sources, &balanceSource{repo: repo})
		case SourceLegacy:
			sources = append(sources, &legacySource{repo: repo})
		default:
			log.Warn().Str("source", name).Msg("unknown credit source in order, skipping")
		}
	}

	return &Gate{sources: sources}
}

// Authorize finds the first source able to cover voterLimit and debits it.
// On failure every balance is left exactly as it was.
func (g *Gate) Authorize(ctx context.Context, accountID uuid.UUID, voterLimit int64) (*Authorization, error) {
	for _, src := range g.sources {
		auth, err := src.TryDebit(ctx, accountID, voterLimit)
		if err != nil {
			return nil, err
		}
		if auth != nil {
			log.Info().
				Str("account_id", accountID.String()).
				Str("source", auth.Source).
				Int64("amount", auth.Amount).
				Msg("credit authorized")
			return auth, nil
		}
	}
	return nil, ErrInsufficientCredit
}

// Release reverses a prior authorization. Compensating action, not a
// rollback: it re-credits the source that was debited.
func (g *Gate) Release(ctx context.Context, accountID uuid.UUID, auth Authorization) error {
	if auth.Amount == 0 {
		return nil
	}
	for _, src := range g.sources {
		if src.Name() == auth.Source {
			return src.Release(ctx, accountID, auth.Amount)
		}
	}
	return ErrInternal
}

// unlimitedSource satisfies any voter limit with zero debit while a
// package window covers "now".
type unlimitedSource struct {
	repo *ledger.Repository
}

func (s *unlimitedSource) Name() string { return SourceUnlimited }

func (s *unlimitedSource) TryDebit(ctx context.Context, accountID uuid.UUID, voterLimit int64) (*Authorization, error) {
	pkg, err := s.repo.ActiveUnlimitedPackage(ctx, accountID, time.Now())
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, nil
	}
	return &Authorization{Source: SourceUnlimited, Amount: 0}, nil
}

func (s *unlimitedSource) Release(ctx context.Context, accountID uuid.UUID, amount int64) error {
	// Nothing was debited.
	return nil
}

// balanceSource debits the shared credit balance one-for-one
type balanceSource struct {
	repo *ledger.Repository
}

func (s *balanceSource) Name() string { return SourceBalance }

func (s *balanceSource) TryDebit(ctx context.Context, accountID uuid.UUID, voterLimit int64) (*Authorization, error) {
	_, err := s.repo.DebitBalance(ctx, accountID, voterLimit)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientCredit) || errors.Is(err, ledger.ErrUnknownAccount) {
			return nil, nil
		}
		return nil, err
	}
	return &Authorization{Source: SourceBalance, Amount: voterLimit}, nil
}

func (s *balanceSource) Release(ctx context.Context, accountID uuid.UUID, amount int64) error {
	return s.repo.CreditBalance(ctx, accountID, amount)
}

// legacySource consumes deprecated finite grants, oldest first
type legacySource struct {
	repo *ledger.Repository
}

func (s *legacySource) Name() string { return SourceLegacy }

func (s *legacySource) TryDebit(ctx context.Context, accountID uuid.UUID, voterLimit int64) (*Authorization, error) {
	err := s.repo.DebitLegacyGrants(ctx, accountID, voterLimit)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientCredit) {
			return nil, nil
		}
		return nil, err
	}
	return &Authorization{Source: SourceLegacy, Amount: voterLimit}, nil
}

func (s *legacySource) Release(ctx context.Context, accountID uuid.UUID, amount int64) error {
	return s.repo.RestoreLegacyGrants(ctx, accountID, amount)
}
