package global

import (
	"strings"

	"order_board/internal/utility"

	"github.com/go-playground/validator/v10"
)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("day", validateDay)
	_ = Validate.RegisterValidation("no_slash", validateNoSlash)
}

// validateDay kiểm tra ngày dạng YYYY-MM-DD
func validateDay(fl validator.FieldLevel) bool {
	return utility.IsValidDay(fl.Field().String())
}

// validateNoSlash: id dùng làm document id không được chứa '/'
func validateNoSlash(fl validator.FieldLevel) bool {
	return !strings.Contains(fl.Field().String(), "/")
}
