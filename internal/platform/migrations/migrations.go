package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Statements idempotentes, na ordem de dependência das tabelas.
// As invariantes de negócio moram nas constraints:
//   - saldo nunca negativo (CHECK em users)
//   - no máximo um stake ACTIVE por (user, event) (índice parcial único)
//   - no máximo uma injeção COMPLETED por evento (índice parcial único)
//   - um resultado por evento (PK em event_id)
//   - uma recompensa por (event, user) (unique)
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		role TEXT NOT NULL CHECK (role IN ('ADMIN','AMBASSADOR','ATHLETE','AUDIENCE')),
		wallet_address TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		virtual_balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (virtual_balance_cents >= 0),
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS fee_rules (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		version INT NOT NULL DEFAULT 1,
		staking_fee_percent NUMERIC(5,2) NOT NULL CHECK (staking_fee_percent >= 0),
		distribution_fee_percent NUMERIC(5,2) NOT NULL CHECK (distribution_fee_percent >= 0),
		tier1_multiplier NUMERIC(8,3) NOT NULL,
		tier2_multiplier NUMERIC(8,3) NOT NULL,
		tier3_multiplier NUMERIC(8,3) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (name, version)
	)`,

	`CREATE TABLE IF NOT EXISTS event_applications (
		id UUID PRIMARY KEY,
		ambassador_id UUID NOT NULL REFERENCES users(id),
		team_a_name TEXT NOT NULL,
		team_a_roster TEXT[] NOT NULL DEFAULT '{}',
		team_b_name TEXT NOT NULL,
		team_b_roster TEXT[] NOT NULL DEFAULT '{}',
		venue TEXT NOT NULL,
		venue_capacity INT NOT NULL CHECK (venue_capacity > 0),
		scheduled_at TIMESTAMPTZ NOT NULL,
		priority TEXT NOT NULL DEFAULT 'NORMAL' CHECK (priority IN ('LOW','NORMAL','HIGH')),
		status TEXT NOT NULL DEFAULT 'DRAFT',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS pool_injections (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES event_applications(id),
		admin_id UUID NOT NULL REFERENCES users(id),
		pool_amount_cents BIGINT NOT NULL CHECK (pool_amount_cents > 0),
		fee_rule_id UUID NOT NULL REFERENCES fee_rules(id),
		support_coeff_a NUMERIC(8,3) NOT NULL DEFAULT 1.0,
		support_coeff_b NUMERIC(8,3) NOT NULL DEFAULT 1.0,
		status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING','COMPLETED','FAILED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS pool_injections_event_completed_uq
		ON pool_injections (event_id) WHERE status = 'COMPLETED'`,

	`CREATE TABLE IF NOT EXISTS stake_records (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		event_id UUID NOT NULL REFERENCES event_applications(id),
		stake_amount_cents BIGINT NOT NULL CHECK (stake_amount_cents > 0),
		participation_tier SMALLINT NOT NULL CHECK (participation_tier BETWEEN 1 AND 3),
		team_choice CHAR(1) NOT NULL CHECK (team_choice IN ('A','B')),
		multiplier NUMERIC(8,3) NOT NULL,
		expected_reward_cents BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE','CANCELLED','SETTLED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS stake_records_user_event_active_uq
		ON stake_records (user_id, event_id) WHERE status = 'ACTIVE'`,

	`CREATE TABLE IF NOT EXISTS match_results (
		event_id UUID PRIMARY KEY REFERENCES event_applications(id),
		team_a_score INT NOT NULL CHECK (team_a_score >= 0),
		team_b_score INT NOT NULL CHECK (team_b_score >= 0),
		winning_team TEXT NOT NULL CHECK (winning_team IN ('A','B','DRAW')),
		recorded_by UUID NOT NULL REFERENCES users(id),
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS reward_records (
		id UUID PRIMARY KEY,
		stake_record_id UUID NOT NULL REFERENCES stake_records(id),
		event_id UUID NOT NULL REFERENCES event_applications(id),
		user_id UUID NOT NULL REFERENCES users(id),
		final_reward_cents BIGINT NOT NULL CHECK (final_reward_cents >= 0),
		calculation_formula TEXT NOT NULL DEFAULT '',
		distribution_status TEXT NOT NULL DEFAULT 'PENDING'
			CHECK (distribution_status IN ('PENDING','CALCULATED','DISTRIBUTED','FAILED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT reward_records_event_user_uq UNIQUE (event_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS balance_ledger (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		operation_type TEXT NOT NULL CHECK (operation_type IN ('DEBIT','CREDIT')),
		amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
		description TEXT NOT NULL DEFAULT '',
		related_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS stake_records_event_idx ON stake_records (event_id)`,
	`CREATE INDEX IF NOT EXISTS reward_records_user_idx ON reward_records (user_id)`,
	`CREATE INDEX IF NOT EXISTS balance_ledger_user_idx ON balance_ledger (user_id)`,
}

// Apply executa todas as migrações, uma a uma.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
