package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

type fakeRosterEvaluations struct {
	evaluations []models.Evaluation
	err         error
}

func (f *fakeRosterEvaluations) ListByStudent(ctx context.Context, studentID string) ([]models.Evaluation, error) {
	return f.evaluations, f.err
}

type fakeRosterEnrollments struct {
	rows []models.EnrolledSubject
	err  error
}

func (f *fakeRosterEnrollments) ListEnrolledSubjects(ctx context.Context, studentID string) ([]models.EnrolledSubject, error) {
	return f.rows, f.err
}

func strPtr(s string) *string { return &s }

func TestRosterSingleEnrollmentNotEvaluated(t *testing.T) {
	svc := NewRosterService(
		&fakeRosterEvaluations{},
		&fakeRosterEnrollments{rows: []models.EnrolledSubject{
			{SubjectID: "s1", SubjectCode: "MATH", SubjectName: "Mathematics", InstructorID: strPtr("i1"), InstructorName: strPtr("Instructor A")},
		}},
		nil,
	)

	entries, err := svc.ForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].Subject.ID)
	assert.Equal(t, "i1", entries[0].Instructor.ID)
	assert.False(t, entries[0].HasEvaluated)
}

func TestRosterEvaluationFlipsOnlyMatchingPair(t *testing.T) {
	enrollments := &fakeRosterEnrollments{rows: []models.EnrolledSubject{
		{SubjectID: "s1", SubjectCode: "MATH", SubjectName: "Mathematics", InstructorID: strPtr("i1"), InstructorName: strPtr("Instructor A")},
		{SubjectID: "s2", SubjectCode: "PHYS", SubjectName: "Physics", InstructorID: strPtr("i1"), InstructorName: strPtr("Instructor A")},
	}}

	svc := NewRosterService(
		&fakeRosterEvaluations{evaluations: []models.Evaluation{
			{StudentID: "stu-1", SubjectID: "s1", InstructorID: "i1"},
		}},
		enrollments,
		nil,
	)

	entries, err := svc.ForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].HasEvaluated)
	// same instructor but different subject stays pending
	assert.False(t, entries[1].HasEvaluated)
}

func TestRosterFirstAssignmentWins(t *testing.T) {
	// rows arrive ordered by assignment age within a subject
	enrollments := &fakeRosterEnrollments{rows: []models.EnrolledSubject{
		{SubjectID: "s1", SubjectCode: "MATH", SubjectName: "Mathematics", InstructorID: strPtr("i-old"), InstructorName: strPtr("Oldest")},
		{SubjectID: "s1", SubjectCode: "MATH", SubjectName: "Mathematics", InstructorID: strPtr("i-new"), InstructorName: strPtr("Newest")},
	}}

	svc := NewRosterService(&fakeRosterEvaluations{}, enrollments, nil)

	entries, err := svc.ForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "i-old", entries[0].Instructor.ID)
	assert.Equal(t, "Oldest", entries[0].Instructor.FullName)
}

func TestRosterOmitsSubjectsWithoutInstructor(t *testing.T) {
	enrollments := &fakeRosterEnrollments{rows: []models.EnrolledSubject{
		{SubjectID: "s1", SubjectCode: "ART", SubjectName: "Art"},
		{SubjectID: "s2", SubjectCode: "MATH", SubjectName: "Mathematics", InstructorID: strPtr("i1"), InstructorName: strPtr("Instructor A")},
	}}

	svc := NewRosterService(&fakeRosterEvaluations{}, enrollments, nil)

	entries, err := svc.ForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s2", entries[0].Subject.ID)
}

func TestRosterPreservesSubjectNameOrder(t *testing.T) {
	enrollments := &fakeRosterEnrollments{rows: []models.EnrolledSubject{
		{SubjectID: "s-m", SubjectCode: "MATH", SubjectName: "Mathematics", InstructorID: strPtr("i1"), InstructorName: strPtr("A")},
		{SubjectID: "s-p", SubjectCode: "PHYS", SubjectName: "Physics", InstructorID: strPtr("i2"), InstructorName: strPtr("B")},
	}}

	svc := NewRosterService(&fakeRosterEvaluations{}, enrollments, nil)

	entries, err := svc.ForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Mathematics", entries[0].Subject.Name)
	assert.Equal(t, "Physics", entries[1].Subject.Name)
}

func TestRosterEmptyEnrollments(t *testing.T) {
	svc := NewRosterService(&fakeRosterEvaluations{}, &fakeRosterEnrollments{}, nil)

	entries, err := svc.ForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestRosterNoPartialResultsOnFailure(t *testing.T) {
	svc := NewRosterService(
		&fakeRosterEvaluations{err: errors.New("boom")},
		&fakeRosterEnrollments{rows: []models.EnrolledSubject{
			{SubjectID: "s1", SubjectCode: "MATH", SubjectName: "Mathematics", InstructorID: strPtr("i1")},
		}},
		nil,
	)

	entries, err := svc.ForStudent(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
