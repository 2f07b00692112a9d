package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

type fakeEvaluationRepo struct {
	createErr error
	created   *models.Evaluation
}

func (f *fakeEvaluationRepo) Create(ctx context.Context, evaluation *models.Evaluation) error {
	if f.createErr != nil {
		return f.createErr
	}
	evaluation.ID = "e-1"
	f.created = evaluation
	return nil
}

type fakeEnrollmentChecker struct {
	enrolled bool
}

func (f *fakeEnrollmentChecker) ExistsEnrollment(ctx context.Context, studentID, subjectID string) (bool, error) {
	return f.enrolled, nil
}

type fakeAssignmentChecker struct {
	assigned bool
}

func (f *fakeAssignmentChecker) ExistsAssignment(ctx context.Context, instructorID, subjectID string) (bool, error) {
	return f.assigned, nil
}

func TestSubmitEvaluation(t *testing.T) {
	repo := &fakeEvaluationRepo{}
	svc := NewEvaluationService(repo, &fakeEnrollmentChecker{enrolled: true}, &fakeAssignmentChecker{assigned: true}, nil, nil)

	evaluation, err := svc.Submit(context.Background(), "stu-1", SubmitEvaluationRequest{SubjectID: "s1", InstructorID: "i1"})
	require.NoError(t, err)
	assert.Equal(t, "e-1", evaluation.ID)
	assert.Equal(t, "stu-1", evaluation.StudentID)
	require.NotNil(t, repo.created)
}

func TestSubmitEvaluationRejectsUnenrolled(t *testing.T) {
	svc := NewEvaluationService(&fakeEvaluationRepo{}, &fakeEnrollmentChecker{}, &fakeAssignmentChecker{assigned: true}, nil, nil)

	_, err := svc.Submit(context.Background(), "stu-1", SubmitEvaluationRequest{SubjectID: "s1", InstructorID: "i1"})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
	assert.Equal(t, "student is not enrolled in this subject", typed.Message)
}

func TestSubmitEvaluationRejectsUnassignedInstructor(t *testing.T) {
	svc := NewEvaluationService(&fakeEvaluationRepo{}, &fakeEnrollmentChecker{enrolled: true}, &fakeAssignmentChecker{}, nil, nil)

	_, err := svc.Submit(context.Background(), "stu-1", SubmitEvaluationRequest{SubjectID: "s1", InstructorID: "i1"})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
	assert.Equal(t, "instructor is not assigned to this subject", typed.Message)
}

func TestSubmitEvaluationDuplicateConflict(t *testing.T) {
	repo := &fakeEvaluationRepo{createErr: appErrors.Clone(appErrors.ErrConflict, "evaluation already submitted for this subject and instructor")}
	svc := NewEvaluationService(repo, &fakeEnrollmentChecker{enrolled: true}, &fakeAssignmentChecker{assigned: true}, nil, nil)

	_, err := svc.Submit(context.Background(), "stu-1", SubmitEvaluationRequest{SubjectID: "s1", InstructorID: "i1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubmitEvaluationValidation(t *testing.T) {
	svc := NewEvaluationService(&fakeEvaluationRepo{}, &fakeEnrollmentChecker{}, &fakeAssignmentChecker{}, nil, nil)

	_, err := svc.Submit(context.Background(), "stu-1", SubmitEvaluationRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
