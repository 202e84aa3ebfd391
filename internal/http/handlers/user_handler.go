package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/http/middleware"
	"github.com/tbourn/go-dm-backend/internal/services"
)

// UsersResponse lists directory entries.
type UsersResponse struct {
	Message string            `json:"message" example:"Users retrieved successfully"`
	Users   []domain.UserInfo `json:"users"`
	Count   int               `json:"count"`
}

// UserResponse wraps a single identity.
type UserResponse struct {
	Message string          `json:"message" example:"Current user retrieved successfully"`
	User    domain.UserInfo `json:"user"`
}

// OnlineUsersResponse is a snapshot of users with a live socket.
type OnlineUsersResponse struct {
	Message string   `json:"message" example:"Online users retrieved successfully"`
	Users   []string `json:"users"`
	Count   int      `json:"count"`
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users
// @Description Activated users other than the caller, sorted by first name.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UsersResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	me, authed := currentUser(c)
	if !authed {
		return
	}
	users, err := h.userSvc.ListExcept(c.Request.Context(), me.UserID)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("list users failed")
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list users")
		return
	}
	if users == nil {
		users = []domain.UserInfo{}
	}
	ok(c, http.StatusOK, UsersResponse{Message: "Users retrieved successfully", Users: users, Count: len(users)})
}

// Me godoc
// @ID          getCurrentUser
// @Summary     Current user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UserResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	me, authed := currentUser(c)
	if !authed {
		return
	}
	ok(c, http.StatusOK, UserResponse{Message: "Current user retrieved successfully", User: me})
}

// OnlineUsers godoc
// @ID          listOnlineUsers
// @Summary     Online users
// @Description Ids of users with an active realtime connection on this node.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.OnlineUsersResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /users/online [get]
func (h *Handlers) OnlineUsers(c *gin.Context) {
	if _, authed := currentUser(c); !authed {
		return
	}
	ids := h.rt.OnlineUsers()
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	ok(c, http.StatusOK, OnlineUsersResponse{Message: "Online users retrieved successfully", Users: ids, Count: len(ids)})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path  string  true  "User id"
// @Success     200  {object}  handlers.UserResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /users/{userId} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	if _, authed := currentUser(c); !authed {
		return
	}
	u, err := h.userSvc.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("get user failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to load user")
		return
	}
	ok(c, http.StatusOK, UserResponse{Message: "User retrieved successfully", User: u})
}
