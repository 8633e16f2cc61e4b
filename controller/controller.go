package controller

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taskboard/apperror"
	"taskboard/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RespondError writes err as {"error": message}. Dependency failures are
// logged with their cause and answered with a generic message.
func RespondError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	if appErr.Kind == apperror.KindDependency {
		zap.S().Errorw(appErr.Message,
			"requestID", c.GetString("requestID"),
			"path", c.FullPath(),
			"error", appErr.Err,
		)
		_ = c.Error(err)
	}
	c.JSON(appErr.Status(), gin.H{"error": appErr.Message})
}

// BindJSON decodes the request body and reports binding problems as validation errors.
func BindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return BindingError(err)
	}
	return nil
}

func BindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldLabel(fe))
		}
		return apperror.Validation("invalid input: " + strings.Join(fields, ", "))
	}
	return apperror.Validation("invalid input: malformed JSON body")
}

func fieldLabel(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// ParseID reads a positive numeric path parameter.
func ParseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid " + name)
	}
	return uint(id), nil
}

// ActingUser resolves who a write is recorded against. A verified caller
// always acts as itself and may not name another user; otherwise the
// requested id is used, falling back to the caller headers.
func ActingUser(c *gin.Context, requested uint) (uint, error) {
	caller := middleware.CallerFrom(c)
	if caller.Verified {
		if requested != 0 && requested != caller.UserID {
			return 0, apperror.Authorization("cannot act on behalf of another user")
		}
		return caller.UserID, nil
	}
	if requested == 0 {
		return caller.UserID, nil
	}
	return requested, nil
}
