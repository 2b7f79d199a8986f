package handlers

import "github.com/gin-gonic/gin"

// currentUserID reads the user id the auth middleware stored in the context.
func currentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
