package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

func newAccountRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func accountRows(identifier string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "identifier", "full_name", "password_hash", "created_at", "updated_at"}).
		AddRow("u1", identifier, "Some Name", "hash", time.Now(), time.Now())
}

func TestAccountRepositoryFindByIdentifierSelectsRoleTable(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("SELECT id, student_number AS identifier, full_name, password_hash, created_at, updated_at FROM students").
		WithArgs("2021-001").
		WillReturnRows(accountRows("2021-001"))

	account, err := repo.FindByIdentifier(context.Background(), models.RoleStudent, "2021-001")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.Equal(t, "2021-001", account.Identifier)

	mock.ExpectQuery("SELECT id, username AS identifier, full_name, password_hash, created_at, updated_at FROM admins").
		WithArgs("admin").
		WillReturnRows(accountRows("admin"))

	account, err = repo.FindByIdentifier(context.Background(), models.RoleAdmin, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, account.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByIdentifierUnknownRole(t *testing.T) {
	db, _, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	_, err := repo.FindByIdentifier(context.Background(), models.Role("GHOST"), "x")
	assert.Error(t, err)
}

func TestAccountRepositoryExistsByIdentifier(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("SELECT 1 FROM instructors WHERE instructor_number").
		WithArgs("INS-001").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByIdentifier(context.Background(), models.RoleInstructor, "INS-001")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "2021-001", "Student A", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	account := &models.Account{Identifier: "2021-001", FullName: "Student A", PasswordHash: "hash", Role: models.RoleStudent}
	err := repo.Create(context.Background(), account)
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryCreateDuplicateIdentifier(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO admins").
		WillReturnError(&pq.Error{Code: "23505"})

	account := &models.Account{Identifier: "admin", FullName: "Admin", PasswordHash: "hash", Role: models.RoleAdmin}
	err := repo.Create(context.Background(), account)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
