package webserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sidKey     = "sid"
	sessionTTL = 24 * time.Hour
)

var errBadToken = errors.New("invalid session token")

func issueSessionToken(sid string, secret []byte, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		sidKey: sid,
		"iat":  now.Unix(),
		"exp":  now.Add(sessionTTL).Unix(),
	})
	return token.SignedString(secret)
}

func parseSessionToken(raw string, secret []byte) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", errBadToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errBadToken
	}
	sid, _ := claims[sidKey].(string)
	if _, err := uuid.Parse(sid); err != nil {
		return "", errBadToken
	}
	return sid, nil
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// JWTMiddleware requires a valid session token and stores its sid.
func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}
		sid, err := parseSessionToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(sidKey, sid)
		c.Next()
	}
}
