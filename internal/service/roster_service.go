package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

type rosterEvaluationRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Evaluation, error)
}

type rosterEnrollmentRepository interface {
	ListEnrolledSubjects(ctx context.Context, studentID string) ([]models.EnrolledSubject, error)
}

// RosterService computes the evaluation roster for a student: every
// enrolled subject paired with its assigned instructor and whether the
// student has already evaluated that pair.
//
// The join table permits several instructors per subject; the roster
// keeps only the oldest assignment per subject and omits subjects with
// no instructor at all, so a subject only surfaces once it is
// evaluable. Pure read, no side effects.
type RosterService struct {
	evaluations rosterEvaluationRepository
	enrollments rosterEnrollmentRepository
	logger      *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(evaluations rosterEvaluationRepository, enrollments rosterEnrollmentRepository, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{evaluations: evaluations, enrollments: enrollments, logger: logger}
}

type evaluatedKey struct {
	subjectID    string
	instructorID string
}

// ForStudent returns the roster ordered by subject name ascending. Any
// persistence failure aborts the computation; no partial results are
// returned.
func (s *RosterService) ForStudent(ctx context.Context, studentID string) ([]models.RosterEntry, error) {
	evaluations, err := s.evaluations.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluations")
	}

	evaluated := make(map[evaluatedKey]struct{}, len(evaluations))
	for _, ev := range evaluations {
		evaluated[evaluatedKey{subjectID: ev.SubjectID, instructorID: ev.InstructorID}] = struct{}{}
	}

	rows, err := s.enrollments.ListEnrolledSubjects(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	// Rows arrive ordered by subject name, then assignment age. The
	// first instructor row per subject wins; later assignments and
	// instructor-less subjects are skipped.
	entries := make([]models.RosterEntry, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, done := seen[row.SubjectID]; done {
			continue
		}
		if row.InstructorID == nil {
			seen[row.SubjectID] = struct{}{}
			continue
		}
		seen[row.SubjectID] = struct{}{}

		key := evaluatedKey{subjectID: row.SubjectID, instructorID: *row.InstructorID}
		_, hasEvaluated := evaluated[key]

		instructorName := ""
		if row.InstructorName != nil {
			instructorName = *row.InstructorName
		}

		entries = append(entries, models.RosterEntry{
			Subject: models.RosterSubject{
				ID:   row.SubjectID,
				Code: row.SubjectCode,
				Name: row.SubjectName,
				Icon: row.SubjectIcon,
			},
			Instructor: models.RosterInstructor{
				ID:       *row.InstructorID,
				FullName: instructorName,
			},
			HasEvaluated: hasEvaluated,
		})
	}

	return entries, nil
}
