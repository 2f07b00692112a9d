package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	"github.com/noah-isme/instructor-eval-api/internal/service"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

type fakeInstructorStore struct {
	instructors []models.Instructor
	total       int
	byID        *models.Instructor
	links       []models.InstructorSubjectDetail
	deleteErr   error
}

func (f *fakeInstructorStore) List(context.Context, models.InstructorFilter) ([]models.Instructor, int, error) {
	return f.instructors, f.total, nil
}

func (f *fakeInstructorStore) FindByID(context.Context, string) (*models.Instructor, error) {
	return f.byID, nil
}

func (f *fakeInstructorStore) SubjectLinks(context.Context, []string) ([]models.InstructorSubjectDetail, error) {
	return f.links, nil
}

func (f *fakeInstructorStore) CreateWithSubjects(ctx context.Context, instructor *models.Instructor, subjectIDs []string) error {
	instructor.ID = "i-new"
	f.byID = instructor
	return nil
}

func (f *fakeInstructorStore) UpdateWithSubjects(context.Context, *models.Instructor, []string) error {
	return nil
}

func (f *fakeInstructorStore) Delete(context.Context, string) error {
	return f.deleteErr
}

type fakeStudentCounter struct{}

func (f *fakeStudentCounter) StudentIDsBySubjects(context.Context, []string) ([]string, error) {
	return []string{"stu-1", "stu-2", "stu-1"}, nil
}

func newInstructorTestHandler(store *fakeInstructorStore) *InstructorHandler {
	svc := service.NewInstructorService(store, &fakeStudentCounter{}, nil, nil, nil)
	return NewInstructorHandler(svc)
}

func TestInstructorHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeInstructorStore{
		instructors: []models.Instructor{{ID: "i1", InstructorNumber: "INS-001", FullName: "Instructor A"}},
		total:       1,
		links: []models.InstructorSubjectDetail{
			{InstructorID: "i1", SubjectID: "s1", SubjectCode: "MATH", SubjectName: "Mathematics"},
		},
	}
	h := newInstructorTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/instructors?page=1&limit=20", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data       []models.InstructorDirectoryEntry `json:"data"`
		Pagination *models.Pagination                `json:"pagination"`
		Meta       map[string]interface{}            `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, 2, envelope.Data[0].StudentCount)
	assert.Len(t, envelope.Data[0].Subjects, 1)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
	assert.Equal(t, false, envelope.Meta["cached"])
}

func TestInstructorHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newInstructorTestHandler(&fakeInstructorStore{})

	body, _ := json.Marshal(service.CreateInstructorRequest{
		InstructorNumber: "INS-001",
		FullName:         "Instructor A",
		Password:         "secret1",
		SubjectIDs:       []string{"s1"},
	})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/instructors", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestInstructorHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newInstructorTestHandler(&fakeInstructorStore{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/instructors", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInstructorHandlerDeleteReferenced(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeInstructorStore{deleteErr: appErrors.Clone(appErrors.ErrReferenced, "instructor has evaluations and cannot be deleted")}
	h := newInstructorTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/instructors/i1", nil)
	c.Params = gin.Params{{Key: "id", Value: "i1"}}

	h.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
