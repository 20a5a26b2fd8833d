package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/middleware"
)

// requestContext returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

func subjectFromContext(c *gin.Context) string {
	return c.GetString(middleware.CtxSubjectKey)
}
