package serializer

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/service"
)

var log = zap.NewNop()

// SetLogger sets the logger used to record server-side failures.
func SetLogger(l *zap.Logger) {
	if l != nil {
		log = l
	}
}

// Response
type Response struct {
	Code  int         `json:"code"`
	Data  interface{} `json:"data,omitempty"`
	Msg   string      `json:"msg"`
	Error string      `json:"error,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data interface{}) Response {
	return Response{Code: http.StatusOK, Data: data, Msg: "ok"}
}

// Err
func Err(errCode int, msg string, err error) Response {
	res := Response{
		Code: errCode,
		Msg:  msg,
	}
	// development mode, show error detail
	if err != nil && gin.Mode() != gin.ReleaseMode {
		res.Error = fmt.Sprintf("%+v", err)
	}
	return res
}

// DBErr
func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	return Err(http.StatusInternalServerError, msg, err)
}

// ParamErr
func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "parameter error"
	}
	return Err(http.StatusBadRequest, msg, err)
}

// AuthErr
func AuthErr(msg string) Response {
	if msg == "" {
		msg = "authentication error"
	}
	return Err(http.StatusUnauthorized, msg, nil)
}

// StatusOf maps a service error kind to its HTTP status.
func StatusOf(kind service.Kind) int {
	switch kind {
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindInvalidTransition, service.KindInvalidState, service.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FromError builds the response for a failed service call.
func FromError(err error) Response {
	kind := service.KindOf(err)
	status := StatusOf(kind)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("kind", kind.String()), zap.Error(err))
		return Err(status, "internal error", err)
	}
	return Err(status, err.Error(), nil)
}

// Abort writes the response for err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	res := FromError(err)
	c.AbortWithStatusJSON(res.Code, res)
}
