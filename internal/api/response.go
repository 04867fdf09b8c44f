package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/llm"
	"github.com/ciclofficina/tracker/internal/progress"
)

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Meta    any  `json:"meta,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func Success(c *fiber.Ctx, status int, data any, meta ...any) error {
	resp := SuccessResponse{Success: true, Data: data}
	if len(meta) > 0 {
		resp.Meta = meta[0]
	}
	return c.Status(status).JSON(resp)
}

func OK(c *fiber.Ctx, data any, meta ...any) error {
	return Success(c, fiber.StatusOK, data, meta...)
}

func Created(c *fiber.Ctx, data any) error {
	return Success(c, fiber.StatusCreated, data)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func Error(c *fiber.Ctx, status int, err error, details ...any) error {
	resp := ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: err.Error(),
	}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	return c.Status(status).JSON(resp)
}

// BadRequest reports an unreadable body or query.
func BadRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

// errorStatus maps domain errors to HTTP statuses. Anything unknown is a
// server error.
func errorStatus(err error) (int, any) {
	var (
		fe       *fiber.Error
		notFound *curriculum.ModuleNotFoundError
		inUse    *curriculum.ModuleInUseError
		invalid  *curriculum.ValidationError
		cycle    *depgraph.CycleError
		self     *depgraph.SelfDependencyError
		depType  *depgraph.InvalidDependencyTypeError
		status   *progress.InvalidStatusError
		score    *progress.ScoreRangeError
		noRecord *progress.NoRecordError
		rate     *llm.ErrRateLimit
		llmDown  *llm.ErrProviderUnavailable
		llmBad   *llm.ErrInvalidResponse
		llmNo    *llm.ErrRejected
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code, nil
	case errors.As(err, &notFound), errors.As(err, &noRecord):
		return fiber.StatusNotFound, nil
	case errors.As(err, &cycle):
		return fiber.StatusConflict, fiber.Map{"chain": cycle.Chain}
	case errors.As(err, &inUse):
		return fiber.StatusConflict, fiber.Map{"dependents": inUse.Dependents}
	case errors.As(err, &invalid):
		return fiber.StatusUnprocessableEntity, fiber.Map{"problems": invalid.Problems}
	case errors.As(err, &self), errors.As(err, &depType), errors.As(err, &status), errors.As(err, &score):
		return fiber.StatusUnprocessableEntity, nil
	case errors.Is(err, llm.ErrNotConfigured):
		return fiber.StatusServiceUnavailable, nil
	case errors.As(err, &rate):
		return fiber.StatusTooManyRequests, nil
	case errors.As(err, &llmDown), errors.As(err, &llmBad), errors.As(err, &llmNo):
		return fiber.StatusBadGateway, nil
	}
	return fiber.StatusInternalServerError, nil
}
