package middlewares

import (
	"time"

	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 12 * time.Hour

// GenerateToken issues a signed token for one shift.
func GenerateToken(user *models.User) (string, error) {
	claims := &types.Claims{
		Username: user.Username,
		Role:     user.Role,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			Subject:   user.Username,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey())
}
