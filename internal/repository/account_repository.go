package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/pkg/database"
)

const accountColumns = `id, user_id, account_name, page_id, access_token, expires_at, created_at, updated_at`

const userPageConstraint = "facebook_accounts_user_page_key"

type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new Facebook account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

// ListByUser returns the user's accounts ordered by name
func (r *accountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.FacebookAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM facebook_accounts
		WHERE user_id = $1
		ORDER BY account_name, created_at`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.FacebookAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// GetByID returns the account only when it belongs to userID
func (r *accountRepository) GetByID(ctx context.Context, id, userID string) (*domain.FacebookAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM facebook_accounts
		WHERE id = $1 AND user_id = $2`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("account %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// Create inserts the account unless the user already connected the same page
func (r *accountRepository) Create(ctx context.Context, account *domain.FacebookAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	return r.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM facebook_accounts WHERE user_id = $1 AND page_id = $2)`,
			account.UserID, account.PageID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check account existence: %w", err)
		}
		if exists {
			return fmt.Errorf("page %s: %w", account.PageID, ErrDuplicateAccount)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO facebook_accounts (`+accountColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			account.ID,
			account.UserID,
			account.AccountName,
			account.PageID,
			account.AccessToken,
			account.ExpiresAt,
			account.CreatedAt,
			account.UpdatedAt,
		)
		if err != nil {
			if c := uniqueConstraint(err); c == userPageConstraint || c == "unknown" {
				return fmt.Errorf("page %s: %w", account.PageID, ErrDuplicateAccount)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})
}

// Update changes the non-nil fields of an owned account and returns the result
func (r *accountRepository) Update(ctx context.Context, id, userID string, update domain.AccountUpdate) (*domain.FacebookAccount, error) {
	query := `
		UPDATE facebook_accounts
		SET account_name = COALESCE($3, account_name),
			access_token = COALESCE($4, access_token),
			expires_at = COALESCE($5, expires_at),
			updated_at = $6
		WHERE id = $1 AND user_id = $2
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query,
		id,
		userID,
		update.AccountName,
		update.AccessToken,
		update.ExpiresAt,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("account %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return account, nil
}

// Delete removes an owned account
func (r *accountRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.DB.ExecContext(ctx,
		`DELETE FROM facebook_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if isMalformedID(err) {
			return fmt.Errorf("account %s not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account %s not found: %w", id, ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.FacebookAccount, error) {
	account := &domain.FacebookAccount{}
	var expiresAt sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.AccountName,
		&account.PageID,
		&account.AccessToken,
		&expiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		account.ExpiresAt = &t
	}

	return account, nil
}
