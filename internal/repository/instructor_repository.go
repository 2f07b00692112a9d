package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

// InstructorRepository manages persistence for instructors and their
// subject assignments.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs an InstructorRepository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns instructors matching filters along with total count.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	base := "FROM instructors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(instructor_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":         "full_name",
		"instructor_number": "instructor_number",
		"created_at":        "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, instructor_number, full_name, password_hash, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}

	return instructors, total, nil
}

// FindByID fetches an instructor by ID.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, instructor_number, full_name, password_hash, created_at, updated_at FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// SubjectLinks returns assignment rows joined to subject info for the
// given instructors, ordered for stable grouping.
func (r *InstructorRepository) SubjectLinks(ctx context.Context, instructorIDs []string) ([]models.InstructorSubjectDetail, error) {
	if len(instructorIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(instructorIDs))
	args := make([]interface{}, len(instructorIDs))
	for i, id := range instructorIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`
SELECT iss.instructor_id, iss.subject_id, s.code AS subject_code, s.name AS subject_name
FROM instructor_subjects iss
JOIN subjects s ON s.id = iss.subject_id
WHERE iss.instructor_id IN (%s)
ORDER BY iss.instructor_id, s.name ASC`, strings.Join(placeholders, ","))

	var links []models.InstructorSubjectDetail
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, fmt.Errorf("list instructor subject links: %w", err)
	}
	return links, nil
}

// ExistsAssignment checks whether the instructor is assigned to the subject.
func (r *InstructorRepository) ExistsAssignment(ctx context.Context, instructorID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM instructor_subjects WHERE instructor_id = $1 AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, instructorID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check instructor assignment: %w", err)
	}
	return true, nil
}

// CreateWithSubjects inserts the instructor row and its subject links
// inside a single transaction; a failure partway leaves no partial
// linkage.
func (r *InstructorRepository) CreateWithSubjects(ctx context.Context, instructor *models.Instructor, subjectIDs []string) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = now
	}
	instructor.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create instructor: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO instructors (id, instructor_number, full_name, password_hash, created_at, updated_at)
		VALUES (:id, :instructor_number, :full_name, :password_hash, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, instructor); err != nil {
		err = translateConstraint(fmt.Errorf("create instructor: %w", err),
			appErrors.Clone(appErrors.ErrConflict, "instructor number already used"), nil)
		return err
	}

	if err = insertSubjectLinks(ctx, tx, instructor.ID, subjectIDs, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create instructor: %w", err)
	}
	return nil
}

// UpdateWithSubjects updates the instructor row and replaces its
// subject links inside a single transaction.
func (r *InstructorRepository) UpdateWithSubjects(ctx context.Context, instructor *models.Instructor, subjectIDs []string) error {
	instructor.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update instructor: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE instructors SET instructor_number = :instructor_number, full_name = :full_name, updated_at = :updated_at WHERE id = :id`
	var result sql.Result
	if result, err = tx.NamedExecContext(ctx, updateQuery, instructor); err != nil {
		err = translateConstraint(fmt.Errorf("update instructor: %w", err),
			appErrors.Clone(appErrors.ErrConflict, "instructor number already used"), nil)
		return err
	}
	var affected int64
	if affected, err = result.RowsAffected(); err != nil {
		return fmt.Errorf("check updated instructor rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM instructor_subjects WHERE instructor_id = $1`, instructor.ID); err != nil {
		err = fmt.Errorf("clear instructor subject links: %w", err)
		return err
	}

	if err = insertSubjectLinks(ctx, tx, instructor.ID, subjectIDs, instructor.UpdatedAt); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update instructor: %w", err)
	}
	return nil
}

// Delete removes the instructor and its subject links. Deletion is
// rejected while evaluation rows still reference the instructor.
func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete instructor: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM instructor_subjects WHERE instructor_id = $1`, id); err != nil {
		err = fmt.Errorf("delete instructor subject links: %w", err)
		return err
	}

	var result sql.Result
	if result, err = tx.ExecContext(ctx, `DELETE FROM instructors WHERE id = $1`, id); err != nil {
		err = translateConstraint(fmt.Errorf("delete instructor: %w", err), nil,
			appErrors.Clone(appErrors.ErrReferenced, "instructor has evaluations and cannot be deleted"))
		return err
	}
	var affected int64
	if affected, err = result.RowsAffected(); err != nil {
		return fmt.Errorf("check deleted instructor rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete instructor: %w", err)
	}
	return nil
}

func insertSubjectLinks(ctx context.Context, tx *sqlx.Tx, instructorID string, subjectIDs []string, now time.Time) error {
	for _, subjectID := range subjectIDs {
		link := models.InstructorSubject{
			ID:           uuid.NewString(),
			InstructorID: instructorID,
			SubjectID:    subjectID,
			CreatedAt:    now,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO instructor_subjects (id, instructor_id, subject_id, created_at)
			VALUES (:id, :instructor_id, :subject_id, :created_at)`, &link); err != nil {
			return translateConstraint(fmt.Errorf("insert instructor subject link: %w", err),
				appErrors.Clone(appErrors.ErrConflict, "subject already linked to instructor"),
				appErrors.Clone(appErrors.ErrInvalidReference, "linked subject does not exist"))
		}
	}
	return nil
}
