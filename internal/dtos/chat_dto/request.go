package chat_dto

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPageSize  = 50
	MaxContentLength = 4000
)

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,notblank,max=4000"`
}

// PageQuery is read from ?page=&size=; both are optional.
type PageQuery struct {
	Page int `validate:"min=0"`
	Size int
}

// NotBlankValidator rejects strings made only of whitespace.
func NotBlankValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("notblank", NotBlankValidator)
	return validate
}
