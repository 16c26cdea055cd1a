package userhandler

import (
	"errors"
	"net/http"
	"sort"

	"chatmatchgo/internal/presence"
	"chatmatchgo/internal/services/userstore"
	"chatmatchgo/internal/socialgraph"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc   userstore.IUserService
	graph *socialgraph.Store
	reg   *presence.Registry
}

func New(svc userstore.IUserService, graph *socialgraph.Store, reg *presence.Registry) *Handler {
	return &Handler{svc: svc, graph: graph, reg: reg}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/users", h.register)
	r.GET("/users/:username", h.info)
	r.GET("/groups/:name", h.group)
	r.GET("/online", h.online)
}

// @Summary		Register a user
// @Description	Creates a durable user record. Credential handling happens upstream.
// @Tags			Users
// @Param			body	body	RegisterUserBody	true	"Username payload"
// @Success		201
// @Failure		400	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/users [post]
func (h *Handler) register(ginCtx *gin.Context) {
	var body RegisterUserBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.svc.CreateUser(ginCtx.Request.Context(), body.Username); err != nil {
		if errors.Is(err, userstore.ErrUserExists) {
			ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: err.Error()})
			return
		}
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.Status(http.StatusCreated)
}

// @Summary		Get user details
// @Description	Returns a user's profile together with their durable friend list.
// @Tags			Users
// @Param			username	path		string	true	"Username"	default(alice)
// @Success		200			{object}	UserResponse
// @Failure		404			{object}	ErrorResponse
// @Router			/users/{username} [get]
func (h *Handler) info(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.svc.FindByUsername(c, username); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	friends, err := h.svc.LoadFriends(c, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, UserResponse{Username: username, Friends: friends})
}

// @Summary		Get group roster
// @Description	Returns the member list of a group.
// @Tags			Groups
// @Param			name	path		string	true	"Group name"	default(g1)
// @Success		200		{object}	GroupResponse
// @Failure		404		{object}	ErrorResponse
// @Router			/groups/{name} [get]
func (h *Handler) group(c *gin.Context) {
	name := c.Param("name")
	members, err := h.graph.Group(name)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GroupResponse{Name: name, Members: members})
}

// @Summary		List online users
// @Description	Returns the usernames with a live session on this instance.
// @Tags			Users
// @Success		200	{object}	OnlineResponse
// @Router			/online [get]
func (h *Handler) online(c *gin.Context) {
	online := h.reg.Online()
	sort.Strings(online)
	c.JSON(http.StatusOK, OnlineResponse{Online: online})
}
