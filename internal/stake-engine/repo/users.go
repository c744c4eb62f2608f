package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/campusplay/stake-engine/internal/shared/db"
	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
)

// CreateUser insere um usuário com saldo inicial zero.
func (p *Postgres) CreateUser(ctx context.Context, role, walletAddress, displayName string) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, role, wallet_address, display_name)
		VALUES ($1,$2,$3,$4)`,
		id, role, walletAddress, displayName,
	)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// GetUser retorna o usuário pelo id.
func (p *Postgres) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, role, wallet_address, display_name, virtual_balance_cents, version, created_at
		FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.Role, &u.WalletAddress, &u.DisplayName, &u.VirtualBalanceCent, &u.Version, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// Deposit credita saldo virtual e registra a operação no ledger, numa transação.
func (p *Postgres) Deposit(ctx context.Context, userID string, amountCents int64, externalRef string) (newBalance int64, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		if err := creditBalance(ctx, tx, userID, amountCents, "deposit:"+externalRef, externalRef); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT virtual_balance_cents FROM users WHERE id=$1`, userID).
			Scan(&newBalance)
	})
	if err != nil {
		return 0, mapError(err)
	}
	return newBalance, nil
}

// debitBalance debita saldo de forma condicional: o UPDATE só afeta a linha
// se o saldo cobre o valor, então saldo nunca fica negativo mesmo sob corrida.
func debitBalance(ctx context.Context, tx *sql.Tx, userID string, amountCents int64, description, relatedRef string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET virtual_balance_cents = virtual_balance_cents - $1, version = version + 1
		WHERE id = $2 AND virtual_balance_cents >= $1`,
		amountCents, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_ledger (user_id, operation_type, amount_cents, description, related_ref)
		VALUES ($1,'DEBIT',$2,$3,$4)`,
		userID, amountCents, description, relatedRef,
	)
	return err
}

// creditBalance incrementa saldo e registra a operação no ledger.
func creditBalance(ctx context.Context, tx *sql.Tx, userID string, amountCents int64, description, relatedRef string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET virtual_balance_cents = virtual_balance_cents + $1, version = version + 1
		WHERE id = $2`,
		amountCents, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_ledger (user_id, operation_type, amount_cents, description, related_ref)
		VALUES ($1,'CREDIT',$2,$3,$4)`,
		userID, amountCents, description, relatedRef,
	)
	return err
}
