package logger

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIdHeader = "X-Request-Id"
	requestIdKey    = "request_id"
)

// Assigns every request an id, reused from the header if the proxy sent one
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIdKey, id)
		c.Header(RequestIdHeader, id)
		c.Next()
	}
}

// Logger with request details
func LOG(c *gin.Context) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"module":     "faucet.rest",
		"request_id": c.GetString(requestIdKey),
		"method":     c.Request.Method,
		"path":       c.FullPath(),
	})
}

// Aborts the request with the status and returns a logger for the failure
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})

	return LOG(c).WithError(err).WithField("status", status)
}
