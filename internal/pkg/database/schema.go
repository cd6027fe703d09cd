package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ApplySchema creates all tables and indexes the service relies on.
// Safe to call on every startup, everything uses IF NOT EXISTS.
//
// The unique indexes here are load-bearing: duplicate-vote prevention and
// payment dedup are enforced by the database, not by application checks.
func ApplySchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const schema = `
-- Organizer accounts and their spendable credit
CREATE TABLE IF NOT EXISTS accounts (
    id UUID PRIMARY KEY,
    shared_credit_balance BIGINT NOT NULL DEFAULT 0 CHECK (shared_credit_balance >= 0),
    archived_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Time-bounded credit sources that cover any voter limit
CREATE TABLE IF NOT EXISTS unlimited_packages (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id),
    valid_from TIMESTAMPTZ NOT NULL,
    valid_until TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (valid_until > valid_from)
);

CREATE INDEX IF NOT EXISTS idx_unlimited_packages_account ON unlimited_packages(account_id, valid_until);

-- Deprecated pre-shared-balance credit allocations, read-mostly
CREATE TABLE IF NOT EXISTS legacy_credit_grants (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id),
    amount BIGINT NOT NULL CHECK (amount > 0),
    remaining BIGINT NOT NULL CHECK (remaining >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (remaining <= amount)
);

CREATE INDEX IF NOT EXISTS idx_legacy_grants_account ON legacy_credit_grants(account_id, created_at);

-- External mobile-money payments; transaction_id is the idempotency key
CREATE TABLE IF NOT EXISTS payment_transactions (
    transaction_id TEXT PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id),
    phone_number TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'success', 'failed')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    settled_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_payment_transactions_account ON payment_transactions(account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_payment_transactions_created ON payment_transactions(created_at);

CREATE TABLE IF NOT EXISTS elections (
    id UUID PRIMARY KEY,
    organizer_id UUID NOT NULL REFERENCES accounts(id),
    organization_id UUID,
    title TEXT NOT NULL,
    plan_type TEXT NOT NULL DEFAULT 'standard',
    voter_limit BIGINT NOT NULL CHECK (voter_limit > 0),
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'closed')),
    credit_source TEXT,
    debited_amount BIGINT NOT NULL DEFAULT 0,
    starts_at TIMESTAMPTZ,
    ends_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_elections_status ON elections(status, ends_at);
CREATE INDEX IF NOT EXISTS idx_elections_organizer ON elections(organizer_id, status);

-- Who may vote in an election
CREATE TABLE IF NOT EXISTS allowed_voters (
    election_id UUID NOT NULL REFERENCES elections(id),
    student_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (election_id, student_id)
);

CREATE TABLE IF NOT EXISTS candidates (
    id UUID PRIMARY KEY,
    election_id UUID NOT NULL REFERENCES elections(id),
    position TEXT NOT NULL,
    name TEXT NOT NULL,
    vote_count BIGINT NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (election_id, position, name)
);

CREATE INDEX IF NOT EXISTS idx_candidates_election_position ON candidates(election_id, position);

-- Append-only ballots. The unique constraint is the single arbiter of
-- "has this voter already voted for this position".
CREATE TABLE IF NOT EXISTS votes (
    id UUID PRIMARY KEY,
    election_id UUID NOT NULL REFERENCES elections(id),
    voter_id TEXT NOT NULL,
    candidate_id UUID NOT NULL REFERENCES candidates(id),
    position TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (election_id, voter_id, position)
);

CREATE INDEX IF NOT EXISTS idx_votes_election_position ON votes(election_id, position);
CREATE INDEX IF NOT EXISTS idx_votes_created ON votes(created_at);
`
