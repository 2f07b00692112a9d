package repository

import (
	"context"
	"database/sql"
	"regexp"
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

func newInstructorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestInstructorRepositoryList(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "instructor_number", "full_name", "password_hash", "created_at", "updated_at"}).
		AddRow("i1", "INS-001", "Instructor A", "hash", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, instructor_number, full_name, password_hash, created_at, updated_at FROM instructors WHERE 1=1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM instructors WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.InstructorFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryListSearchFilter(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery("SELECT id, instructor_number, full_name, password_hash, created_at, updated_at FROM instructors WHERE 1=1 AND").
		WithArgs("%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_number", "full_name", "password_hash", "created_at", "updated_at"}))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	list, total, err := repo.List(context.Background(), models.InstructorFilter{Search: "Ana"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryCreateWithSubjects(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO instructors").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO instructor_subjects").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO instructor_subjects").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	instructor := &models.Instructor{InstructorNumber: "INS-001", FullName: "Instructor A", PasswordHash: "hash"}
	err := repo.CreateWithSubjects(context.Background(), instructor, []string{"sub-1", "sub-2"})
	require.NoError(t, err)
	assert.NotEmpty(t, instructor.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryCreateRollsBackOnBadLink(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO instructors").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO instructor_subjects").
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	instructor := &models.Instructor{InstructorNumber: "INS-001", FullName: "Instructor A", PasswordHash: "hash"}
	err := repo.CreateWithSubjects(context.Background(), instructor, []string{"missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidReference.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryCreateDuplicateNumber(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO instructors").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	instructor := &models.Instructor{InstructorNumber: "INS-001", FullName: "Instructor A", PasswordHash: "hash"}
	err := repo.CreateWithSubjects(context.Background(), instructor, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryUpdateReplacesLinks(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE instructors SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM instructor_subjects").
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO instructor_subjects").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	instructor := &models.Instructor{ID: "i1", InstructorNumber: "INS-002", FullName: "Instructor B"}
	err := repo.UpdateWithSubjects(context.Background(), instructor, []string{"sub-3"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE instructors SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	instructor := &models.Instructor{ID: "gone", InstructorNumber: "INS-002", FullName: "Instructor B"}
	err := repo.UpdateWithSubjects(context.Background(), instructor, nil)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryDeleteReferenced(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM instructor_subjects").
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM instructors").
		WithArgs("i1").
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "i1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReferenced.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositorySubjectLinks(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	rows := sqlmock.NewRows([]string{"instructor_id", "subject_id", "subject_code", "subject_name"}).
		AddRow("i1", "s1", "MATH", "Mathematics").
		AddRow("i1", "s2", "PHYS", "Physics")
	mock.ExpectQuery("SELECT iss.instructor_id, iss.subject_id").
		WithArgs("i1").
		WillReturnRows(rows)

	links, err := repo.SubjectLinks(context.Background(), []string{"i1"})
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "Mathematics", links[0].SubjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositorySubjectLinksEmptyInput(t *testing.T) {
	db, _, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	links, err := repo.SubjectLinks(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, links)
}

func TestInstructorRepositoryExistsAssignment(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM instructor_subjects WHERE instructor_id = $1 AND subject_id = $2 LIMIT 1")).
		WithArgs("i1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsAssignment(context.Background(), "i1", "s1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
