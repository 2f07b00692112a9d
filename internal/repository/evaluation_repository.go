package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

// EvaluationRepository persists evaluation records. Rows are insert
// only; the unique (student, subject, instructor) tuple is enforced by
// the database.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs an EvaluationRepository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// ListByStudent returns all evaluation records for the student.
func (r *EvaluationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Evaluation, error) {
	const query = `SELECT id, student_id, subject_id, instructor_id, created_at FROM evaluations WHERE student_id = $1`
	var evaluations []models.Evaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, studentID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evaluations, nil
}

// Create inserts an evaluation record. A duplicate tuple surfaces as a
// conflict, a dangling reference as an invalid-reference error.
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO evaluations (id, student_id, subject_id, instructor_id, created_at)
		VALUES (:id, :student_id, :subject_id, :instructor_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return translateConstraint(fmt.Errorf("create evaluation: %w", err),
			appErrors.Clone(appErrors.ErrConflict, "evaluation already submitted for this subject and instructor"),
			appErrors.Clone(appErrors.ErrInvalidReference, "referenced student, subject or instructor does not exist"))
	}
	return nil
}
