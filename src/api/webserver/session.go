package webserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stake-plus/mmr-scorecard/src/chat"
)

type Sessions struct {
	store  chat.Store
	secret []byte
	now    func() time.Time
}

func NewSessions(store chat.Store, secret []byte) Sessions {
	return Sessions{store: store, secret: secret, now: time.Now}
}

// Create starts a session and returns its signed token.
func (s Sessions) Create(c *gin.Context) {
	sid := uuid.NewString()
	token, err := issueSessionToken(sid, s.secret, s.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionToken": token, "expiresIn": int(sessionTTL.Seconds())})
}

func (s Sessions) History(c *gin.Context) {
	sid := c.GetString(sidKey)
	conv, err := s.store.Load(c.Request.Context(), sid)
	switch {
	case errors.Is(err, chat.ErrNoConversation):
		c.JSON(http.StatusOK, gin.H{"messages": []chat.Message{}})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": conv.Messages, "timestamp": conv.Timestamp})
}

func (s Sessions) Clear(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.GetString(sidKey)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
