package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/instructor-eval-api/internal/models"
)

// EnrollmentRepository reads the student_subjects join table. The core
// engines only consume enrollments; rows are produced by the student
// registration flow upstream of this service.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListEnrolledSubjects returns the student's enrollments joined to
// assigned instructors. Subjects without an instructor produce one row
// with NULL instructor columns; subjects with several instructors
// produce one row per assignment ordered by assignment age, so the
// first row per subject is the oldest assignment.
func (r *EnrollmentRepository) ListEnrolledSubjects(ctx context.Context, studentID string) ([]models.EnrolledSubject, error) {
	const query = `
SELECT s.id AS subject_id, s.code AS subject_code, s.name AS subject_name, s.icon AS subject_icon,
       i.id AS instructor_id, i.full_name AS instructor_name
FROM student_subjects ss
JOIN subjects s ON s.id = ss.subject_id
LEFT JOIN instructor_subjects iss ON iss.subject_id = s.id
LEFT JOIN instructors i ON i.id = iss.instructor_id
WHERE ss.student_id = $1
ORDER BY s.name ASC, iss.created_at ASC`
	var rows []models.EnrolledSubject
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrolled subjects: %w", err)
	}
	return rows, nil
}

// StudentIDsBySubjects returns the enrollment student ids across the
// given subjects, duplicates included. Deduplication happens in the
// aggregate engine.
func (r *EnrollmentRepository) StudentIDsBySubjects(ctx context.Context, subjectIDs []string) ([]string, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(subjectIDs))
	args := make([]interface{}, len(subjectIDs))
	for i, id := range subjectIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT student_id FROM student_subjects WHERE subject_id IN (%s)", strings.Join(placeholders, ","))

	var studentIDs []string
	if err := r.db.SelectContext(ctx, &studentIDs, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollment student ids: %w", err)
	}
	return studentIDs, nil
}

// ExistsEnrollment checks whether the student is enrolled in the subject.
func (r *EnrollmentRepository) ExistsEnrollment(ctx context.Context, studentID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM student_subjects WHERE student_id = $1 AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}
