package server

import (
	"dailyprompt/internal/middleware"
	"dailyprompt/internal/models"
	"dailyprompt/internal/repository"
	"dailyprompt/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAnswerRequest is the body of POST /api/answers.
type CreateAnswerRequest struct {
	Answer   string `json:"answer"`
	PromptID string `json:"promptId"`
	User     string `json:"user"`
}

// GetAnswers handles GET /api/answers
// @Summary List answers
// @Description Answers with their authors, optionally for one prompt
// @Tags answers
// @Produce json
// @Param promptId query string false "Prompt ID"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.AnswerView
// @Failure 400 {object} models.ErrorResponse
// @Router /answers [get]
func (s *Server) GetAnswers(c *fiber.Ctx) error {
	promptID, err := parseOptionalUUID(c.Query("promptId"))
	if err != nil {
		return err
	}
	page := parsePagination(c, defaultPaginationLimit)

	answers, err := s.answerService.List(c.UserContext(), repository.AnswerFilter{
		PromptID: promptID,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(models.AnswerViews(answers))
}

// CreateAnswer handles POST /api/answers
// @Summary Submit an answer
// @Description Without a user the answer is attributed to the caller, or to a new anonymous user. Without a promptId it goes to the active prompt.
// @Tags answers
// @Accept json
// @Produce json
// @Param request body CreateAnswerRequest true "Answer"
// @Success 201 {object} models.AnswerView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /answers [post]
func (s *Server) CreateAnswer(c *fiber.Ctx) error {
	var req CreateAnswerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	promptID, err := parseOptionalUUID(req.PromptID)
	if err != nil {
		return err
	}
	userID, err := parseOptionalUUID(req.User)
	if err != nil {
		return err
	}
	if userID == nil {
		if id, ok := middleware.UserIDFromLocals(c); ok {
			userID = &id
		}
	}

	answer, err := s.answerService.Submit(c.UserContext(), service.SubmitAnswerInput{
		Answer:   req.Answer,
		PromptID: promptID,
		UserID:   userID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(answer.View())
}
