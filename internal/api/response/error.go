package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ctchen222/mini-games/internal/game"
)

// StatusMapping pairs a sentinel error with the HTTP status it answers.
type StatusMapping struct {
	Err  error
	Code int
}

// gameStatuses covers the rules engine errors every handler may see.
var gameStatuses = []StatusMapping{
	{game.ErrInvalidMove, http.StatusUnprocessableEntity},
	{game.ErrNotYourTurn, http.StatusConflict},
	{game.ErrGameFinished, http.StatusConflict},
	{game.ErrNoMovesAvailable, http.StatusConflict},
}

// StatusFor returns the status of the first mapping err matches, checking
// extra before the rules engine errors. Unknown errors are 500.
func StatusFor(err error, extra ...StatusMapping) int {
	for _, m := range append(extra, gameStatuses...) {
		if errors.Is(err, m.Err) {
			return m.Code
		}
	}
	return http.StatusInternalServerError
}

// FromError writes err with the status StatusFor picks.
func FromError(c *gin.Context, err error, extra ...StatusMapping) {
	ErrorResponse(c, StatusFor(err, extra...), err.Error())
}
