package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/instructor-eval-api/internal/service"
	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
	"github.com/noah-isme/instructor-eval-api/pkg/response"
)

// StudentHandler exposes the student-facing evaluation endpoints.
type StudentHandler struct {
	roster      *service.RosterService
	questions   *service.QuestionService
	evaluations *service.EvaluationService
}

// NewStudentHandler constructs a new StudentHandler.
func NewStudentHandler(roster *service.RosterService, questions *service.QuestionService, evaluations *service.EvaluationService) *StudentHandler {
	return &StudentHandler{
		roster:      roster,
		questions:   questions,
		evaluations: evaluations,
	}
}

// SubjectsForEvaluation godoc
// @Summary List subjects available for evaluation
// @Description Returns the student's enrolled subjects with assigned instructor and evaluation status
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/subjects-for-evaluation [get]
func (h *StudentHandler) SubjectsForEvaluation(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.roster.ForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ActiveQuestions godoc
// @Summary List active evaluation questions
// @Description Returns the question set used to build the evaluation form
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/questions [get]
func (h *StudentHandler) ActiveQuestions(c *gin.Context) {
	questions, err := h.questions.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, nil)
}

// SubmitEvaluation godoc
// @Summary Submit an evaluation
// @Description Records that the student evaluated an instructor for a subject
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body service.SubmitEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/evaluations [post]
func (h *StudentHandler) SubmitEvaluation(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}

	evaluation, err := h.evaluations.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evaluation)
}
