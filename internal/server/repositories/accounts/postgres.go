package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

const emailConstraint = "accounts_email_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var age sql.NullInt32
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &age, &a.TokenGeneration, &a.CreatedAt); err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int32)
		a.Age = &v
	}
	return a, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrNotFound
	case dbx.IsUniqueViolation(err, emailConstraint):
		return common.ErrEmailTaken
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func (r *PostgresRepository) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, email, password_hash, name, age, token_generation, created_at
		 `

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email, passwordHash))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, name, age, token_generation, created_at FROM accounts
		 WHERE email = $1
		 `
	return r.getWithTokens(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, name, age, token_generation, created_at FROM accounts
		 WHERE id = $1
		 `
	return r.getWithTokens(ctx, query, id)
}

func (r *PostgresRepository) getWithTokens(ctx context.Context, query string, arg string) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapErr(err)
	}

	tokens, err := r.listTokens(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.SessionTokens = tokens
	return a, nil
}

func (r *PostgresRepository) listTokens(ctx context.Context, id string) ([]string, error) {
	query :=
		`SELECT token FROM session_tokens
		 WHERE account_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

// AppendToken inserts the token only if the account row, locked FOR SHARE,
// still carries the expected generation. A ClearTokens that commits first
// makes the insert match no rows.
func (r *PostgresRepository) AppendToken(ctx context.Context, id, token string, generation int64) error {
	query :=
		`INSERT INTO session_tokens (account_id, token)
		 SELECT id, $2 FROM accounts
		 WHERE id = $1 AND token_generation = $3
		 FOR SHARE
		 `

	res, err := r.db.ExecContext(ctx, query, id, token, generation)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrSessionsRevoked
	}
	return nil
}

func (r *PostgresRepository) RemoveToken(ctx context.Context, id, token string) error {
	query :=
		`DELETE FROM session_tokens
		 WHERE account_id = $1 AND token = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, id, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ClearTokens bumps the generation first, which waits for in-flight appends
// holding the row lock, then deletes with a fresh snapshot that sees them.
// On a plain *sql.DB both statements run in their own transaction.
func (r *PostgresRepository) ClearTokens(ctx context.Context, id string) error {
	if db, ok := r.db.(*sql.DB); ok {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return clearTokens(ctx, tx, id)
		})
	}
	return clearTokens(ctx, r.db, id)
}

func clearTokens(ctx context.Context, q dbx.DBTX, id string) error {
	bump :=
		`UPDATE accounts SET token_generation = token_generation + 1
		 WHERE id = $1
		 `

	res, err := q.ExecContext(ctx, bump, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}

	del :=
		`DELETE FROM session_tokens
		 WHERE account_id = $1
		 `
	if _, err := q.ExecContext(ctx, del, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateFields(ctx context.Context, id string, upd models.AccountUpdate) (*models.Account, error) {
	query :=
		`UPDATE accounts SET
		   name = COALESCE($2, name),
		   email = COALESCE($3, email),
		   password_hash = COALESCE($4, password_hash),
		   age = COALESCE($5, age)
		 WHERE id = $1
		 RETURNING id, email, password_hash, name, age, token_generation, created_at
		 `

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id,
		nullString(upd.Name), nullString(upd.Email), nullString(upd.PasswordHash), nullInt(upd.Age)))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`DELETE FROM accounts
		 WHERE id = $1
		 RETURNING id, email, password_hash, name, age, token_generation, created_at
		 `

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
