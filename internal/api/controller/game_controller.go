package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ctchen222/mini-games/internal/api/middleware"
	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/api/response"
	"ctchen222/mini-games/internal/api/service"
	"ctchen222/mini-games/internal/repository"
)

var gameStatuses = []response.StatusMapping{
	{Err: repository.ErrGameNotFound, Code: http.StatusNotFound},
	{Err: service.ErrNotYourGame, Code: http.StatusForbidden},
	{Err: repository.ErrMoveConflict, Code: http.StatusConflict},
}

// GameController serves games against the bot.
type GameController struct {
	gameService service.GameService
}

// NewGameController creates a new GameController.
func NewGameController(gameService service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// Start opens a game. An empty body takes the defaults.
func (gc *GameController) Start(c *gin.Context) {
	var req models.StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := gc.gameService.Start(c.Request.Context(), middleware.PlayerID(c), &req)
	if err != nil {
		response.FromError(c, err, gameStatuses...)
		return
	}

	response.CreatedResponse(c, state)
}

// Get returns the current state of a game.
func (gc *GameController) Get(c *gin.Context) {
	state, err := gc.gameService.Get(c.Request.Context(), middleware.PlayerID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err, gameStatuses...)
		return
	}

	response.SuccessResponse(c, state)
}

// Move plays the player's cell; the response already holds the bot's reply.
func (gc *GameController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := gc.gameService.Move(c.Request.Context(), middleware.PlayerID(c), c.Param("id"), *req.Cell)
	if err != nil {
		response.FromError(c, err, gameStatuses...)
		return
	}

	response.SuccessResponse(c, state)
}

// Abandon discards a game.
func (gc *GameController) Abandon(c *gin.Context) {
	if err := gc.gameService.Abandon(c.Request.Context(), middleware.PlayerID(c), c.Param("id")); err != nil {
		response.FromError(c, err, gameStatuses...)
		return
	}

	c.Status(http.StatusNoContent)
}
