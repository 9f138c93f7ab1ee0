package util

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateNotBlank 验证字符串去除空白后是否非空
func ValidateNotBlank(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(value) != ""
}
