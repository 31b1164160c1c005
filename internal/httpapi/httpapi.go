// Package httpapi holds the gin plumbing shared by the service front doors.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

// HeaderRequestID is the inbound and outbound HTTP request id header.
const HeaderRequestID = "X-Request-ID"

// Status maps a domain error to an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, berr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, berr.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, berr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, berr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, berr.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error aborts the request with the mapped status and the error message.
// Messages of unclassified errors are not exposed.
func Error(c *gin.Context, err error) {
	status := Status(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": berr.CodeOf(err)})
}

// Message writes a plain confirmation string.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// RequestID reuses the caller's X-Request-ID or mints one, echoes it back and stores it
// on the request context so bus messages sent while serving carry it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(cbus.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// NewEngine returns a gin engine with recovery, request ids and a /ping route.
func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	return r
}

// Caller returns the acting user id from the X-User-ID header.
// Authentication happens upstream; this service trusts the header.
func Caller(c *gin.Context) (string, bool) {
	id := c.GetHeader(HeaderUserID)
	return id, id != ""
}

// HeaderUserID carries the authenticated user id set by the gateway.
const HeaderUserID = "X-User-ID"

// RequireCaller aborts with 400 when no caller id is present.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Caller(c); !ok {
			Error(c, berr.BadRequest("missing "+HeaderUserID+" header"))
			return
		}

		c.Next()
	}
}
