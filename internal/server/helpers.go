package server

import (
	"strings"

	"dailyprompt/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 100
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseUUID parses a client supplied identifier.
func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, models.NewMalformedIDError(raw)
	}
	return id, nil
}

// parseOptionalUUID returns nil for an empty value.
func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseUUID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseBody decodes a JSON request body into dest.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return models.NewMalformedBodyError(err)
	}
	return nil
}

// parseActiveFilter reads ?active=true|false. Other values mean no filter.
func parseActiveFilter(c *fiber.Ctx) *bool {
	switch strings.ToLower(c.Query("active")) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}
