package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"docindex/types"
)

func ErrorHandler(c *fiber.Ctx, err error) error {
	if apiError, ok := err.(Error); ok {
		return c.Status(apiError.Code).JSON(apiError)
	}
	if valError, ok := err.(types.ValidationError); ok {
		return c.Status(valError.Status).JSON(valError)
	}

	apiError := fromEngineError(err)
	fmt.Printf("%s request failed with code %d and message: %s\n",
		time.Now().Format(time.RFC3339), apiError.Code, apiError.Message)
	return c.Status(apiError.Code).JSON(apiError)
}

// fromEngineError maps the engine's error kinds onto HTTP statuses.
func fromEngineError(err error) Error {
	switch {
	case errors.Is(err, types.ErrUnsupportedFormat),
		errors.Is(err, types.ErrEmptyDocument),
		errors.Is(err, types.ErrInvalidReference):
		return NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrDocumentTooLarge),
		errors.Is(err, types.ErrTooManyChunks):
		return NewError(fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, types.ErrParse):
		return NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, types.ErrDocumentNotFound),
		errors.Is(err, types.ErrReferenceNotFound):
		return NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrVectorStoreUnavailable):
		return NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewError(fiberErr.Code, fiberErr.Message)
	}
	return NewError(fiber.StatusInternalServerError, err.Error())
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid request",
	}
}
