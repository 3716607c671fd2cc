package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ctchen222/mini-games/internal/api/middleware"
	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/api/response"
	"ctchen222/mini-games/internal/api/service"
)

var userStatuses = []response.StatusMapping{
	{Err: service.ErrUsernameTaken, Code: http.StatusConflict},
	{Err: service.ErrInvalidCredentials, Code: http.StatusUnauthorized},
}

// UserController handles user-related HTTP requests.
type UserController struct {
	userService service.UserService
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// Register handles the user registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := uc.userService.Register(c.Request.Context(), &req); err != nil {
		response.FromError(c, err, userStatuses...)
		return
	}

	response.CreatedResponse(c, gin.H{"message": "User created successfully"})
}

// Login handles the user login endpoint.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := uc.userService.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, userStatuses...)
		return
	}

	response.SuccessResponse(c, resp)
}

// GuestLogin handles guest login, returning a generated player ID.
func (uc *UserController) GuestLogin(c *gin.Context) {
	playerID, err := uc.userService.GuestLogin(c.Request.Context())
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.SuccessResponse(c, gin.H{"player_id": playerID})
}

// Stats reports the authenticated player's record.
func (uc *UserController) Stats(c *gin.Context) {
	stats, err := uc.userService.Stats(c.Request.Context(), middleware.PlayerID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessResponse(c, stats)
}
