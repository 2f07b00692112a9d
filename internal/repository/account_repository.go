package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

// AccountRepository resolves identities across the three disjoint
// account tables. The (identifier, role) pair selects the table.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type accountTable struct {
	name       string
	identifier string
}

func tableFor(role models.Role) (accountTable, error) {
	switch role {
	case models.RoleAdmin:
		return accountTable{name: "admins", identifier: "username"}, nil
	case models.RoleStudent:
		return accountTable{name: "students", identifier: "student_number"}, nil
	case models.RoleInstructor:
		return accountTable{name: "instructors", identifier: "instructor_number"}, nil
	}
	return accountTable{}, fmt.Errorf("unknown role %q", role)
}

// FindByIdentifier fetches the account matching (identifier, role).
func (r *AccountRepository) FindByIdentifier(ctx context.Context, role models.Role, identifier string) (*models.Account, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, %s AS identifier, full_name, password_hash, created_at, updated_at FROM %s WHERE %s = $1`,
		table.identifier, table.name, table.identifier)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, identifier); err != nil {
		return nil, err
	}
	account.Role = role
	return &account, nil
}

// FindByID fetches the account with the given id in the role's table.
func (r *AccountRepository) FindByID(ctx context.Context, role models.Role, id string) (*models.Account, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, %s AS identifier, full_name, password_hash, created_at, updated_at FROM %s WHERE id = $1`,
		table.identifier, table.name)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	account.Role = role
	return &account, nil
}

// ExistsByIdentifier checks whether the identifier is already taken
// within the role's table.
func (r *AccountRepository) ExistsByIdentifier(ctx context.Context, role models.Role, identifier string) (bool, error) {
	table, err := tableFor(role)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = $1 LIMIT 1", table.name, table.identifier)
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, identifier); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s identifier: %w", table.name, err)
	}
	return true, nil
}

// Create inserts a new account row into the role's table.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	table, err := tableFor(account.Role)
	if err != nil {
		return err
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO %s (id, %s, full_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, table.name, table.identifier)
	if _, err := r.db.ExecContext(ctx, query,
		account.ID, account.Identifier, account.FullName, account.PasswordHash, account.CreatedAt, account.UpdatedAt); err != nil {
		err = translateConstraint(fmt.Errorf("create %s: %w", table.name, err),
			appErrors.Clone(appErrors.ErrConflict, "identifier already registered"), nil)
		return err
	}
	return nil
}
