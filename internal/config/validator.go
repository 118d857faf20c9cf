package config

import (
	"ChatSyncAPI/internal/model"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("chat_kind", validateChatKind)
	_ = v.RegisterValidation("chat_type", validateChatType)
	return v
}

func validateChatKind(fl validator.FieldLevel) bool {
	return model.ChatKind(fl.Field().String()).Valid()
}

func validateChatType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || model.ChatType(value).Valid()
}
