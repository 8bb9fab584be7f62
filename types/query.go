package types

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type QueryParams struct {
	Query  string `json:"query" validate:"required"`
	K      int    `json:"k" validate:"omitempty,gte=1,lte=20"`
	Answer bool   `json:"answer"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *QueryParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errors,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

// QueryResponse is what the query endpoint returns: the answer (when
// requested) plus the retrieved chunks it was grounded on.
type QueryResponse struct {
	Answer    string    `json:"answer,omitempty"`
	Sources   []Source  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

type Source struct {
	ReferenceID string  `json:"reference_id"`
	Source      string  `json:"source"`
	Page        int     `json:"page"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
}
