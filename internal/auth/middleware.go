package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/your-org/charstudio/pkg/dto"
)

const (
	headerName     = "Authorization"
	bearerPrefix   = "bearer "
	queryTokenName = "access_token"
	userIDKey      = "auth.userID"
)

// BearerMiddleware rejects requests without a valid bearer token and stores the
// caller's user id in the context. WebSocket upgrades may pass the token as the
// access_token query parameter.
func BearerMiddleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader(headerName))
		if token == "" && c.IsWebsocket() {
			token = c.Query(queryTokenName)
		}

		userID, err := v.Verify(token)
		if err != nil {
			slog.Debug("rejected credential", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: dto.ErrorDetail{
					Code:    codes.Unauthenticated.String(),
					Message: "authentication required",
				},
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated caller, or "" outside BearerMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func bearerToken(header string) string {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
