package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const userKeyContext = "user_key"

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserKey string `json:"user_key"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token that scopes requests to userKey
func GenerateJWT(secret, userKey string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if userKey == "" {
		return "", errors.New("user key is empty")
	}

	now := time.Now()
	claims := &JWTClaims{
		UserKey: userKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userKey,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AuthMiddleware validates the bearer token and sets the user key on the context
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				// Try to get from cookie
				cookie, err := c.Cookie("token")
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication token")
				}
				authHeader = "Bearer " + cookie.Value
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			token, err := jwt.ParseWithClaims(parts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return key, nil
			})
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			claims, ok := token.Claims.(*JWTClaims)
			if !ok || !token.Valid || claims.UserKey == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token claims")
			}

			c.Set(userKeyContext, claims.UserKey)
			return next(c)
		}
	}
}

// GetUserKey extracts the user key from echo context
func GetUserKey(c echo.Context) (string, error) {
	userKey, ok := c.Get(userKeyContext).(string)
	if !ok || userKey == "" {
		return "", fmt.Errorf("user_key not found in context")
	}
	return userKey, nil
}
