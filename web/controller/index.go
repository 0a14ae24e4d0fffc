package controller

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/taskwire/taskwire/config"
	"github.com/taskwire/taskwire/logger"
	"github.com/taskwire/taskwire/web/service"
	"github.com/taskwire/taskwire/web/session"
)

// LoginForm is the login request body.
type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RegisterForm is the account registration request body.
type RegisterForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
}

// IndexController handles login, registration and logout.
type IndexController struct {
	BaseController

	userService service.UserService
}

func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.POST("/login", a.login)
	g.POST("/register", a.register)
	g.GET("/logout", a.logout)
	g.GET("/me", a.checkLogin, a.me)
}

func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	if form.Username == "" {
		pureJsonMsg(c, http.StatusOK, false, "username can not be empty")
		return
	}
	if form.Password == "" {
		pureJsonMsg(c, http.StatusOK, false, "password can not be empty")
		return
	}

	user := a.userService.CheckUser(form.Username, form.Password)
	if user == nil {
		logger.Warningf("wrong username or password for %q, IP: %q", form.Username, getRemoteIp(c))
		pureJsonMsg(c, http.StatusOK, false, "wrong username or password")
		return
	}

	session.SetMaxAge(c, config.GetSessionMaxAge()*60)
	if err := session.SetLoginUser(c, user); err != nil {
		logger.Warning("unable to save session:", err)
		pureJsonMsg(c, http.StatusOK, false, "login failed")
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", user.Username, getRemoteIp(c))
	jsonObj(c, user, nil)
}

func (a *IndexController) register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}

	user, err := a.userService.CreateUser(form.Username, form.Password, form.Name)
	if err != nil {
		if service.IsValidation(err) {
			pureJsonMsg(c, http.StatusOK, false, err.Error())
		} else {
			jsonMsg(c, "register", err)
		}
		return
	}

	session.SetMaxAge(c, config.GetSessionMaxAge()*60)
	if err := session.SetLoginUser(c, user); err != nil {
		logger.Warning("unable to save session:", err)
	}

	logger.Infof("new account %q registered, IP: %s", user.Username, getRemoteIp(c))
	jsonObj(c, user, nil)
}

func (a *IndexController) logout(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user != nil {
		logger.Infof("%s logged out", user.Username)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("unable to clear session:", err)
	}
	if err := sessions.Default(c).Save(); err != nil {
		logger.Warning("unable to save session after clearing:", err)
	}
	jsonMsg(c, "logged out", nil)
}

// me returns the session user, letting reconnecting clients re-establish
// identity without credentials.
func (a *IndexController) me(c *gin.Context) {
	jsonObj(c, session.GetLoginUser(c), nil)
}
