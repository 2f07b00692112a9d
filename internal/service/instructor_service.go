package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	SubjectLinks(ctx context.Context, instructorIDs []string) ([]models.InstructorSubjectDetail, error)
	CreateWithSubjects(ctx context.Context, instructor *models.Instructor, subjectIDs []string) error
	UpdateWithSubjects(ctx context.Context, instructor *models.Instructor, subjectIDs []string) error
	Delete(ctx context.Context, id string) error
}

type enrollmentReader interface {
	StudentIDsBySubjects(ctx context.Context, subjectIDs []string) ([]string, error)
}

// CreateInstructorRequest represents payload for creating instructors.
type CreateInstructorRequest struct {
	InstructorNumber string   `json:"instructor_number" validate:"required,max=50"`
	FullName         string   `json:"full_name" validate:"required,max=100"`
	Password         string   `json:"password" validate:"required,min=6"`
	SubjectIDs       []string `json:"subject_ids" validate:"omitempty,dive,required"`
}

// UpdateInstructorRequest represents payload for updating instructors.
type UpdateInstructorRequest struct {
	InstructorNumber string   `json:"instructor_number" validate:"required,max=50"`
	FullName         string   `json:"full_name" validate:"required,max=100"`
	SubjectIDs       []string `json:"subject_ids" validate:"omitempty,dive,required"`
}

// InstructorService orchestrates instructor management and the
// per-instructor distinct-student aggregate.
type InstructorService struct {
	repo        instructorRepository
	enrollments enrollmentReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewInstructorService constructs an InstructorService.
func NewInstructorService(repo instructorRepository, enrollments enrollmentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, enrollments: enrollments, cache: cache, validator: validate, logger: logger}
}

const instructorCachePrefix = "directory:instructors"

func instructorCacheKey(filter models.InstructorFilter) string {
	return fmt.Sprintf("%s:p%d:s%d:q%s:o%s%s", instructorCachePrefix, filter.Page, filter.PageSize, filter.Search, filter.SortBy, filter.SortOrder)
}

type instructorDirectoryPayload struct {
	Entries    []models.InstructorDirectoryEntry `json:"entries"`
	Pagination models.Pagination                 `json:"pagination"`
}

// List returns the instructor directory: each instructor with linked
// subjects and the distinct count of students enrolled in any of them.
// Results are served from cache when enabled.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.InstructorDirectoryEntry, *models.Pagination, bool, error) {
	key := instructorCacheKey(filter)
	if s.cache.Enabled() {
		var cached instructorDirectoryPayload
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			pagination := cached.Pagination
			return cached.Entries, &pagination, true, nil
		}
	}

	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	entries, err := s.buildDirectory(ctx, instructors)
	if err != nil {
		return nil, nil, false, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, instructorDirectoryPayload{Entries: entries, Pagination: *pagination}, 0)
	}

	return entries, pagination, false, nil
}

// Get returns one directory entry by instructor id.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.InstructorDirectoryEntry, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	entries, err := s.buildDirectory(ctx, []models.Instructor{*instructor})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// Create registers a new instructor with subject links in one
// all-or-nothing transaction.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.InstructorDirectoryEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	instructor := &models.Instructor{
		InstructorNumber: strings.TrimSpace(req.InstructorNumber),
		FullName:         strings.TrimSpace(req.FullName),
		PasswordHash:     string(hash),
	}

	if err := s.repo.CreateWithSubjects(ctx, instructor, dedupeIDs(req.SubjectIDs)); err != nil {
		return nil, s.wrapWriteError(err, "failed to create instructor")
	}
	s.invalidateDirectory(ctx)

	return s.Get(ctx, instructor.ID)
}

// Update renames an instructor and replaces its subject links in one
// all-or-nothing transaction.
func (s *InstructorService) Update(ctx context.Context, id string, req UpdateInstructorRequest) (*models.InstructorDirectoryEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	instructor.InstructorNumber = strings.TrimSpace(req.InstructorNumber)
	instructor.FullName = strings.TrimSpace(req.FullName)

	if err := s.repo.UpdateWithSubjects(ctx, instructor, dedupeIDs(req.SubjectIDs)); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, s.wrapWriteError(err, "failed to update instructor")
	}
	s.invalidateDirectory(ctx)

	return s.Get(ctx, id)
}

// Delete removes an instructor and its subject links.
func (s *InstructorService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return s.wrapWriteError(err, "failed to delete instructor")
	}
	s.invalidateDirectory(ctx)
	return nil
}

// DistinctStudentCount counts students enrolled in any of the given
// subjects, each student at most once. Zero subjects short-circuits to
// zero without touching the store.
func (s *InstructorService) DistinctStudentCount(ctx context.Context, subjectIDs []string) (int, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}
	studentIDs, err := s.enrollments.StudentIDsBySubjects(ctx, subjectIDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrolled students")
	}
	distinct := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		distinct[id] = struct{}{}
	}
	return len(distinct), nil
}

func (s *InstructorService) buildDirectory(ctx context.Context, instructors []models.Instructor) ([]models.InstructorDirectoryEntry, error) {
	ids := make([]string, len(instructors))
	for i, instructor := range instructors {
		ids[i] = instructor.ID
	}

	links, err := s.repo.SubjectLinks(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject links")
	}

	subjectsByInstructor := make(map[string][]models.SubjectRef, len(instructors))
	for _, link := range links {
		subjectsByInstructor[link.InstructorID] = append(subjectsByInstructor[link.InstructorID], models.SubjectRef{
			ID:   link.SubjectID,
			Code: link.SubjectCode,
			Name: link.SubjectName,
		})
	}

	entries := make([]models.InstructorDirectoryEntry, 0, len(instructors))
	for _, instructor := range instructors {
		subjects := subjectsByInstructor[instructor.ID]
		subjectIDs := make([]string, len(subjects))
		for i, subject := range subjects {
			subjectIDs[i] = subject.ID
		}
		count, err := s.DistinctStudentCount(ctx, subjectIDs)
		if err != nil {
			return nil, err
		}
		if subjects == nil {
			subjects = []models.SubjectRef{}
		}
		entries = append(entries, models.InstructorDirectoryEntry{
			ID:               instructor.ID,
			InstructorNumber: instructor.InstructorNumber,
			FullName:         instructor.FullName,
			Subjects:         subjects,
			StudentCount:     count,
			CreatedAt:        instructor.CreatedAt,
			UpdatedAt:        instructor.UpdatedAt,
		})
	}
	return entries, nil
}

func (s *InstructorService) invalidateDirectory(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, instructorCachePrefix+":*"); err != nil {
		s.logger.Warn("failed to invalidate instructor directory cache", zap.Error(err))
	}
}

func (s *InstructorService) wrapWriteError(err error, message string) error {
	if typed := appErrors.FromError(err); typed.Code != appErrors.ErrInternal.Code {
		return typed
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
