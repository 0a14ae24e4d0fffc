package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/taskwire/taskwire/logger"
	"github.com/taskwire/taskwire/web/session"
	"github.com/taskwire/taskwire/web/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is validated by the session cookie
	},
}

// WebSocketController upgrades authenticated connections and hands them to
// the hub.
type WebSocketController struct {
	BaseController

	hub        *websocket.Hub
	dispatcher *websocket.Dispatcher
}

func NewWebSocketController(g *gin.RouterGroup, hub *websocket.Hub, dispatcher *websocket.Dispatcher) *WebSocketController {
	a := &WebSocketController{
		hub:        hub,
		dispatcher: dispatcher,
	}
	a.initRouter(g)
	return a
}

func (a *WebSocketController) initRouter(g *gin.RouterGroup) {
	g.GET("/ws", a.checkLogin, a.handleWebSocket)
}

func (a *WebSocketController) handleWebSocket(c *gin.Context) {
	user := session.GetLoginUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed:", err)
		return
	}

	client := websocket.NewClient(a.hub, conn, user.Id)
	client.Serve(a.dispatcher)
}
