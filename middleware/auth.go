package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Winter-Krimmert/Advanced-Blog-API/auth"
	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

// ContextIdentityKey is the key used to store the authenticated *models.User in Gin context.
const ContextIdentityKey = "identity"

// AuthRequired resolves the bearer token to a user and stores it as the request identity.
func AuthRequired(codec *auth.TokenCodec, users auth.UserStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			utils.Error(ctx, utils.ErrMissingToken)
			return
		}

		userID, err := codec.Verify(tokenString)
		if err != nil {
			utils.Error(ctx, AuthError(err))
			return
		}

		user, err := users.FindByID(ctx.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				utils.Error(ctx, utils.ErrUnknownSubject)
				return
			}
			utils.Error(ctx, err)
			return
		}

		ctx.Set(ContextIdentityKey, user)
		ctx.Next()
	}
}

// CurrentUser returns the identity stored by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(ContextIdentityKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
