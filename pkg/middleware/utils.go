package middleware

import (
	"github.com/avion00/medicare-backend/pkg/ctxkeys"
	"github.com/avion00/medicare-backend/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupCommonMiddleware adds all common middleware to a router
func SetupCommonMiddleware(r *gin.Engine, logger logging.Logger) {
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	r.Use(CORSMiddleware())
}

// GetRequestID gets the request ID from the context
func GetRequestID(c *gin.Context) string {
	return c.GetString(string(ctxkeys.KeyRequestID))
}

// GetContextLogger returns an entry carrying the request id, route and the
// authenticated user when there is one.
func GetContextLogger(c *gin.Context, logger logging.Logger) *logrus.Entry {
	fields := logging.Fields{
		"request_id": GetRequestID(c),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}
	if userID, ok := c.Get(string(ctxkeys.KeyUserID)); ok {
		fields["user_id"] = userID
	}
	return logger.WithFields(fields)
}
