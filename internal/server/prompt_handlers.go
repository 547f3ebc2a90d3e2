package server

import (
	"dailyprompt/internal/middleware"
	"dailyprompt/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetPrompts handles GET /api/prompts
// @Summary List prompts
// @Description All prompts, or only active/inactive ones with ?active=true|false
// @Tags prompts
// @Produce json
// @Param active query string false "true or false"
// @Success 200 {array} models.Prompt
// @Router /prompts [get]
func (s *Server) GetPrompts(c *fiber.Ctx) error {
	prompts, err := s.promptService.List(c.UserContext(), parseActiveFilter(c))
	if err != nil {
		return err
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}
	return c.JSON(prompts)
}

// GetActivePrompt handles GET /api/prompts/active
// @Summary Active prompt
// @Description The active prompt with the caller's answers to it
// @Tags prompts
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} models.ActivePromptView
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /prompts/active [get]
func (s *Server) GetActivePrompt(c *fiber.Ctx) error {
	var userID *uuid.UUID
	if id, ok := middleware.UserIDFromLocals(c); ok {
		userID = &id
	}

	view, err := s.promptService.ActiveWithAnswers(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// GetPrompt handles GET /api/prompts/:id
// @Summary Get prompt
// @Tags prompts
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 200 {object} models.Prompt
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /prompts/{id} [get]
func (s *Server) GetPrompt(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return err
	}

	prompt, err := s.promptService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(prompt)
}
