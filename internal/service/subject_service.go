package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectWithCounts, int, error)
	FindByID(ctx context.Context, id string) (*models.SubjectWithCounts, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// CreateSubjectRequest represents payload for creating subjects.
type CreateSubjectRequest struct {
	Code string  `json:"code" validate:"required,max=20"`
	Name string  `json:"name" validate:"required,max=100"`
	Icon *string `json:"icon" validate:"omitempty,max=50"`
}

// UpdateSubjectRequest represents payload for updating subjects.
type UpdateSubjectRequest struct {
	Code string  `json:"code" validate:"required,max=20"`
	Name string  `json:"name" validate:"required,max=100"`
	Icon *string `json:"icon" validate:"omitempty,max=50"`
}

// SubjectService orchestrates subject operations. List and detail
// responses carry distinct student/instructor counts computed by the
// repository on every read.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

const subjectCachePrefix = "directory:subjects"

func subjectCacheKey(filter models.SubjectFilter) string {
	return fmt.Sprintf("%s:p%d:s%d:q%s:o%s%s", subjectCachePrefix, filter.Page, filter.PageSize, filter.Search, filter.SortBy, filter.SortOrder)
}

type subjectListPayload struct {
	Subjects   []models.SubjectWithCounts `json:"subjects"`
	Pagination models.Pagination          `json:"pagination"`
}

// List returns subjects with counts plus pagination data.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectWithCounts, *models.Pagination, bool, error) {
	key := subjectCacheKey(filter)
	if s.cache.Enabled() {
		var cached subjectListPayload
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			pagination := cached.Pagination
			return cached.Subjects, &pagination, true, nil
		}
	}

	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
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
		_ = s.cache.Set(ctx, key, subjectListPayload{Subjects: subjects, Pagination: *pagination}, 0)
	}

	return subjects, pagination, false, nil
}

// Get returns a subject with counts by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.SubjectWithCounts, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create registers a new subject.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.SubjectWithCounts, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	code := strings.TrimSpace(req.Code)
	exists, err := s.repo.ExistsByCode(ctx, code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already used")
	}

	subject := &models.Subject{
		Code: code,
		Name: strings.TrimSpace(req.Name),
		Icon: normalizeOptional(req.Icon),
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		if typed := appErrors.FromError(err); typed.Code == appErrors.ErrConflict.Code {
			return nil, typed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.invalidateDirectory(ctx)

	return s.Get(ctx, subject.ID)
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, id string, req UpdateSubjectRequest) (*models.SubjectWithCounts, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	code := strings.TrimSpace(req.Code)
	exists, err := s.repo.ExistsByCode(ctx, code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already used")
	}

	subject := existing.Subject
	subject.Code = code
	subject.Name = strings.TrimSpace(req.Name)
	subject.Icon = normalizeOptional(req.Icon)

	if err := s.repo.Update(ctx, &subject); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		if typed := appErrors.FromError(err); typed.Code == appErrors.ErrConflict.Code {
			return nil, typed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	s.invalidateDirectory(ctx)

	return s.Get(ctx, id)
}

// Delete removes a subject unless enrollments or assignments still
// reference it.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		if typed := appErrors.FromError(err); typed.Code == appErrors.ErrReferenced.Code {
			return typed
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.invalidateDirectory(ctx)
	return nil
}

func (s *SubjectService) invalidateDirectory(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, subjectCachePrefix+":*"); err != nil {
		s.logger.Warn("failed to invalidate subject directory cache", zap.Error(err))
	}
	// Instructor directory entries embed subject names, refresh those too.
	if err := s.cache.Invalidate(ctx, instructorCachePrefix+":*"); err != nil {
		s.logger.Warn("failed to invalidate instructor directory cache", zap.Error(err))
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
