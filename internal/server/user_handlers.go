package server

import (
	"github.com/gofiber/fiber/v2"
)

// CredentialsRequest is the body of POST /api/users and POST /api/login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// CreateUser handles POST /api/users
// @Summary Register
// @Description Create a user account. The password is stored as a bcrypt hash.
// @Tags users
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 201 {object} models.PublicUser
// @Failure 400 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.authService.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user.Public())
}

// Login handles POST /api/login
// @Summary Log in
// @Description Exchange credentials for a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	token, user, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(LoginResponse{Token: token, Username: user.Username})
}
