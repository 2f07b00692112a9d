package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

type evaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
}

type enrollmentChecker interface {
	ExistsEnrollment(ctx context.Context, studentID, subjectID string) (bool, error)
}

type assignmentChecker interface {
	ExistsAssignment(ctx context.Context, instructorID, subjectID string) (bool, error)
}

// SubmitEvaluationRequest marks a (subject, instructor) pair as
// evaluated by the authenticated student.
type SubmitEvaluationRequest struct {
	SubjectID    string `json:"subject_id" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
}

// EvaluationService handles evaluation submission. A submission is
// accepted only for subjects the student is enrolled in and
// instructors assigned to that subject; resubmission is a conflict.
type EvaluationService struct {
	evaluations evaluationRepository
	enrollments enrollmentChecker
	assignments assignmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(evaluations evaluationRepository, enrollments enrollmentChecker, assignments assignmentChecker, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		evaluations: evaluations,
		enrollments: enrollments,
		assignments: assignments,
		validator:   validate,
		logger:      logger,
	}
}

// Submit records the evaluation for the student.
func (s *EvaluationService) Submit(ctx context.Context, studentID string, req SubmitEvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}

	enrolled, err := s.enrollments.ExistsEnrollment(ctx, studentID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this subject")
	}

	assigned, err := s.assignments.ExistsAssignment(ctx, req.InstructorID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor is not assigned to this subject")
	}

	evaluation := &models.Evaluation{
		StudentID:    studentID,
		SubjectID:    req.SubjectID,
		InstructorID: req.InstructorID,
	}
	if err := s.evaluations.Create(ctx, evaluation); err != nil {
		if typed := appErrors.FromError(err); typed.Code != appErrors.ErrInternal.Code {
			return nil, typed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record evaluation")
	}

	s.logger.Info("evaluation submitted",
		zap.String("student_id", studentID),
		zap.String("subject_id", req.SubjectID),
		zap.String("instructor_id", req.InstructorID),
	)

	return evaluation, nil
}
