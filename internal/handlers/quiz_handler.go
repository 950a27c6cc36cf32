package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	service services.QuizService
}

func NewQuizHandler(service services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateQuiz adds a quiz
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param request body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} models.Quiz
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	h.LogRequest(c, "Creating quiz")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.service.Create(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns a quiz with its questions and options
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} ErrorResponse "Quiz not found"
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	h.LogRequest(c, "Getting quiz")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	quiz, err := h.service.GetByID(c.Request.Context(), schoolID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// UpdateQuiz applies a partial update
// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param request body services.UpdateQuizRequest true "Fields to update"
// @Success 200 {object} models.Quiz
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	h.LogRequest(c, "Updating quiz")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.service.Update(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz soft-deletes a quiz
// @Summary Delete quiz
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	h.LogRequest(c, "Deleting quiz")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz deleted"})
}

// ListQuizzes returns the quiz catalog
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	h.LogRequest(c, "Listing quizzes")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	page, size := h.parsePagination(c)
	quizzes, err := h.service.List(c.Request.Context(), schoolID, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// AddQuestion appends a question with its options
// @Summary Add quiz question
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param request body services.QuizQuestionRequest true "Question data"
// @Success 201 {object} models.QuizQuestion
// @Router /quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	h.LogRequest(c, "Adding quiz question")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	quizID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.QuizQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	question, err := h.service.AddQuestion(c.Request.Context(), schoolID, quizID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion replaces a question and optionally its option set
// @Summary Update quiz question
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param question_id path int true "Question ID"
// @Param request body services.QuizQuestionRequest true "Question data"
// @Success 200 {object} models.QuizQuestion
// @Router /quizzes/{id}/questions/{question_id} [put]
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	h.LogRequest(c, "Updating quiz question")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	quizID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	var req services.QuizQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	question, err := h.service.UpdateQuestion(c.Request.Context(), schoolID, quizID, questionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question and its options
// @Summary Delete quiz question
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Param question_id path int true "Question ID"
// @Success 200 {object} SuccessResponse
// @Router /quizzes/{id}/questions/{question_id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	h.LogRequest(c, "Deleting quiz question")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	quizID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	if err := h.service.DeleteQuestion(c.Request.Context(), schoolID, quizID, questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}
