package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ctchen222/mini-games/internal/api/response"
)

const (
	// PlayerIDKey is the gin context key holding the authenticated player id.
	PlayerIDKey    = "player_id"
	PlayerIDHeader = "X-Player-ID"
)

// TokenParser turns a bearer token into a player id.
type TokenParser interface {
	ParseToken(tokenString string) (string, error)
}

// Auth resolves the player from a Bearer JWT, falling back to the guest
// X-Player-ID header. Browsers cannot set headers on a websocket upgrade, so
// the player_id query parameter is accepted as well. Guest ids must be UUIDs
// as issued by guest login; registered players need their token.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				response.ErrorResponse(c, http.StatusUnauthorized, "authorization header must be a bearer token")
				c.Abort()
				return
			}
			playerID, err := parser.ParseToken(token)
			if err != nil {
				response.ErrorResponse(c, http.StatusUnauthorized, err.Error())
				c.Abort()
				return
			}
			c.Set(PlayerIDKey, playerID)
			c.Next()
			return
		}

		playerID := c.GetHeader(PlayerIDHeader)
		if playerID == "" {
			playerID = c.Query(PlayerIDKey)
		}
		if playerID == "" {
			response.ErrorResponse(c, http.StatusUnauthorized, "missing credentials")
			c.Abort()
			return
		}

		guestID, err := uuid.Parse(playerID)
		if err != nil {
			response.ErrorResponse(c, http.StatusUnauthorized, "guest player id must be a UUID")
			c.Abort()
			return
		}

		c.Set(PlayerIDKey, guestID.String())
		c.Next()
	}
}

// PlayerID returns the player resolved by Auth.
func PlayerID(c *gin.Context) string {
	return c.GetString(PlayerIDKey)
}
