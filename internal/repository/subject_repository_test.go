package repository

import (
	"context"
	"database/sql"
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

func newSubjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func subjectCountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "name", "icon", "created_at", "updated_at", "student_count", "instructor_count"})
}

func TestSubjectRepositoryListWithCounts(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := subjectCountRows().
		AddRow("s1", "MATH", "Mathematics", nil, time.Now(), time.Now(), 12, 2).
		AddRow("s2", "PHYS", "Physics", nil, time.Now(), time.Now(), 0, 0)
	mock.ExpectQuery("SELECT s.id, s.code, s.name, s.icon").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{})
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, 12, subjects[0].StudentCount)
	assert.Equal(t, 2, subjects[0].InstructorCount)
	assert.Equal(t, 0, subjects[1].StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery("SELECT s.id, s.code, s.name, s.icon").
		WithArgs("s1").
		WillReturnRows(subjectCountRows().AddRow("s1", "MATH", "Mathematics", nil, time.Now(), time.Now(), 3, 1))

	subject, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "MATH", subject.Code)
	assert.Equal(t, 3, subject.StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateDuplicateCode(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Subject{Code: "MATH", Name: "Mathematics"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("UPDATE subjects SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Subject{ID: "gone", Code: "MATH", Name: "Mathematics"})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDeleteReferenced(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("DELETE FROM subjects").
		WithArgs("s1").
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Delete(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReferenced.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery("SELECT 1 FROM subjects WHERE").
		WithArgs("MATH", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.ExistsByCode(context.Background(), "MATH", "s1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
