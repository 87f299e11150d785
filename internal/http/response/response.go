package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/ctxutil"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope also carries the message as "detail" for older clients.
type ErrorEnvelope struct {
	Error  APIError `json:"error"`
	Detail string   `json:"detail"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
		Detail: msg,
	})
}

// RespondErr maps err to its HTTP status. Anything that is not an *apierr.Error
// is reported as a 500 with a generic message and logged.
func RespondErr(c *gin.Context, log *logger.Logger, err error) {
	if e, ok := apierr.As(err); ok {
		if e.Status >= http.StatusInternalServerError && log != nil {
			log.Error("request failed", append(ctxutil.LogFields(c.Request.Context()), "path", c.FullPath(), "status", e.Status, "error", err)...)
		}
		RespondError(c, e.Status, e.Code, e)
		return
	}
	if log != nil {
		log.Error("request failed", append(ctxutil.LogFields(c.Request.Context()), "path", c.FullPath(), "error", err)...)
	}
	c.JSON(http.StatusInternalServerError, ErrorEnvelope{
		Error:  APIError{Message: "internal server error", Code: "internal_error"},
		Detail: "internal server error",
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
