package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskwire/taskwire/util/common"
	"github.com/taskwire/taskwire/web/entity"
	"github.com/taskwire/taskwire/web/service"
	"github.com/taskwire/taskwire/web/session"
)

// NewSheetForm is the request body for creating a sheet.
type NewSheetForm struct {
	Name string `json:"name" form:"name"`
}

// BoardController serves the page-load reads: the sheets of the current
// user and the full state of one sheet. Reconnecting websocket clients use
// these to resynchronize, since missed events are never replayed.
type BoardController struct {
	BaseController

	listService service.ListService
	taskService service.TaskService
	userService service.UserService
}

func NewBoardController(g *gin.RouterGroup) *BoardController {
	a := &BoardController{}
	a.initRouter(g)
	return a
}

func (a *BoardController) initRouter(g *gin.RouterGroup) {
	g.Use(a.checkLogin)
	g.GET("/sheets", a.getSheets)
	g.POST("/sheets", a.newSheet)
	g.GET("/sheets/:id", a.getBoard)
}

func (a *BoardController) getSheets(c *gin.Context) {
	user := session.GetLoginUser(c)
	lists, err := a.listService.GetListsForUser(user.Id)
	jsonObj(c, lists, err)
}

func (a *BoardController) newSheet(c *gin.Context) {
	var form NewSheetForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, "create sheet", common.NewError("invalid form data"))
		return
	}

	user := session.GetLoginUser(c)
	list, err := a.listService.CreateList(form.Name, user.Id)
	jsonObj(c, list, err)
}

// getBoard returns a sheet with its tasks and members, for the initial
// render and for post-reconnect refetches.
func (a *BoardController) getBoard(c *gin.Context) {
	listID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		jsonMsg(c, "get board", common.NewError("invalid sheet id"))
		return
	}

	list, err := a.listService.GetList(listID)
	if err != nil {
		jsonMsg(c, "get board", err)
		return
	}

	user := session.GetLoginUser(c)
	if !list.HasMember(user.Id) {
		jsonMsg(c, "get board", common.NewError("not a member of this sheet"))
		return
	}

	tasks, err := a.taskService.GetTasks(list.Id)
	if err != nil {
		jsonMsg(c, "get board", err)
		return
	}
	members, err := a.userService.GetUsers(list.UserIds)
	if err != nil {
		jsonMsg(c, "get board", err)
		return
	}

	jsonObj(c, entity.Board{List: list, Tasks: tasks, Members: members}, nil)
}
