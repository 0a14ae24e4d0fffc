// Package controller provides the HTTP endpoints of the task board: account
// management, sheet CRUD for page loads, and the websocket upgrade.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskwire/taskwire/web/session"
)

// BaseController provides the authentication check shared by all
// session-protected routes.
type BaseController struct{}

func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		pureJsonMsg(c, http.StatusUnauthorized, false, "login required")
		c.Abort()
		return
	}
	c.Next()
}
