package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-listings/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New never leaves data as null.
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error uses the default message for code unless customMsg is set.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// CodeOf maps a domain error kind onto a response code.
func CodeOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return CodeBadRequest
	case domain.KindAuth:
		return CodeUnauthorized
	case domain.KindNotFound:
		return CodeNotFound
	default:
		return CodeServerError
	}
}

// Abort writes err as the envelope with a matching HTTP status. Internal
// details never reach the client.
func Abort(c *gin.Context, err error) {
	code := CodeOf(err)
	msg := ""
	if code != CodeServerError {
		msg = domain.Message(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, Error(code, msg))
}

// Fail aborts with code as both HTTP status and envelope code.
func Fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Error(code, msg))
}

func JSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, OK(data))
}
