package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var bodyMediaTypes = map[string]struct{}{
	"application/json":                  {},
	"application/x-www-form-urlencoded": {},
	"multipart/form-data":               {},
}

// RequireFormOrJSON rejects write requests whose body is neither JSON nor a
// browser form submission.
func RequireFormOrJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if _, ok := bodyMediaTypes[strings.ToLower(mt)]; err != nil || !ok {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":    "unsupported_media_type",
						"message": "Content-Type must be application/json or a form encoding",
					},
				})
				return
			}
		}
		c.Next()
	}
}
