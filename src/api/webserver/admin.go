package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stake-plus/mmr-scorecard/src/data"
)

const defaultAuditLimit = 200

type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) Admin {
	return Admin{db: db}
}

// Conversations returns the audit log of one session.
func (a Admin) Conversations(c *gin.Context) {
	if a.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log unavailable"})
		return
	}
	limit := defaultAuditLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	sid := c.Param("sid")
	msgs, err := data.ChatHistory(c.Request.Context(), a.db, sid, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sid, "messages": msgs})
}

// AdminMiddleware admits requests whose bearer token matches the bcrypt hash.
// An empty hash disables the admin routes.
func AdminMiddleware(tokenHash string) gin.HandlerFunc {
	hash := []byte(tokenHash)
	return func(c *gin.Context) {
		if len(hash) == 0 {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "admin access disabled"})
			return
		}
		token := bearer(c)
		if token == "" || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
