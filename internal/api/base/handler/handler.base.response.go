package basehdl

import (
	"errors"
	"fmt"

	"order_board/internal/common"
	"order_board/internal/global"
	"order_board/internal/logger"

	"github.com/gofiber/fiber/v3"
)

// JSONResponse trả về JSON response với Content-Type: application/json; charset=utf-8
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// SafeHandlerWrapper bọc handler với recover để server luôn trả về response, kể cả khi panic.
func SafeHandlerWrapper(c fiber.Ctx, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithField("panic", r).Error("Handler panicked")
			err = HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Unexpected error: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return fn()
}

// HandleResponse chuẩn hóa response: {"code","message","data","status"} hoặc lỗi kèm details
func HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		var customErr *common.Error
		if errors.As(err, &customErr) {
			if customErr.StatusCode >= common.StatusInternalServerError {
				logger.WithRequest(c).WithError(err).WithField("details", customErr.Details).Error("Request failed")
			}
			return JSONResponse(c, customErr.StatusCode, fiber.Map{
				"code":    customErr.Code.Code,
				"message": customErr.Message,
				"details": customErr.Details,
				"status":  "error",
			})
		}
		logger.WithRequest(c).WithError(err).Error("Request failed")
		return JSONResponse(c, common.StatusInternalServerError, fiber.Map{
			"code":    common.ErrCodeInternalServer.Code,
			"message": err.Error(),
			"status":  "error",
		})
	}

	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// ParseRequestBody bind body vào input rồi validate bằng global.Validate
func ParseRequestBody(c fiber.Ctx, input interface{}) error {
	if err := c.Bind().Body(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, "Invalid JSON body", common.StatusBadRequest, err.Error())
	}
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err.Error())
	}
	return nil
}

// DayParam lấy và kiểm tra tham số :day trên route
func DayParam(c fiber.Ctx) (string, error) {
	day := c.Params("day")
	if err := global.Validate.Var(day, "required,day"); err != nil {
		return "", common.NewError(common.ErrCodeValidationFormat, "day must be YYYY-MM-DD", common.StatusBadRequest, day)
	}
	return day, nil
}
