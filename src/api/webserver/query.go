package webserver

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stake-plus/mmr-scorecard/src/ai/core"
	"github.com/stake-plus/mmr-scorecard/src/chat"
	"github.com/stake-plus/mmr-scorecard/src/data"
	"github.com/stake-plus/mmr-scorecard/src/logging"
	"github.com/stake-plus/mmr-scorecard/src/metrics"
)

const (
	historyWindow     = 5
	maxStoredMessages = 50
	maxPromptRunes    = 4000
	maxOpaqueToken    = 128
	queryTimeout      = 90 * time.Second

	// anonPrefix keeps opaque client tokens out of the signed-session keyspace.
	anonPrefix = "anon:"
)

type cachedAnswer struct {
	Response string
	Model    string
}

// Query serves the chat widget's query endpoint.
type Query struct {
	ai       core.Client
	source   string
	store    chat.Store
	db       *gorm.DB
	cache    *lru.Cache[uint64, cachedAnswer]
	metrics  *metrics.Metrics
	secret   []byte
	sanitize *bluemonday.Policy
	log      *zap.Logger
	now      func() time.Time
}

func NewQuery(d Deps, secret []byte, cache *lru.Cache[uint64, cachedAnswer]) Query {
	source := d.Config.AI.Provider
	if source == "" {
		source = "unknown"
	}
	return Query{
		ai:       d.AI,
		source:   source,
		store:    d.Store,
		db:       d.DB,
		cache:    cache,
		metrics:  d.Metrics,
		secret:   secret,
		sanitize: bluemonday.StrictPolicy(),
		log:      d.Logger.Named("query"),
		now:      time.Now,
	}
}

func (q Query) Query(c *gin.Context) {
	var req chat.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	prompt := q.clean(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}
	if q.ai == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no answer provider configured"})
		return
	}

	sid, token, err := q.session(req.SessionToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Set(sidKey, sid)

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	history := req.ConversationHistory
	if len(history) == 0 {
		history = q.stored(ctx, sid)
	}
	turns := toTurns(history, historyWindow)
	if cont := strings.TrimSpace(req.ContinueFrom); cont != "" {
		if n := len(turns); n == 0 || turns[n-1].Content != cont {
			turns = append(turns, core.Message{Role: core.RoleAssistant, Content: cont})
		}
	}

	cacheable := len(turns) == 0
	key := cacheKey(prompt)
	var answer cachedAnswer
	hit := false
	if cacheable && q.cache != nil {
		answer, hit = q.cache.Get(key)
		q.metrics.CacheLookup(hit)
	}
	if !hit {
		resp, err := q.ai.Respond(ctx, prompt, turns, core.Options{})
		q.metrics.Query(q.source, err)
		if err != nil {
			q.log.Warn("answer failed", zap.String("sid", sid), zap.Error(err))
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				status = http.StatusGatewayTimeout
			case logging.IsRateLimit(err):
				status = http.StatusServiceUnavailable
				c.Header("Retry-After", "30")
			}
			c.JSON(status, gin.H{"error": "Unable to generate a response"})
			return
		}
		answer = cachedAnswer{Response: resp, Model: q.ai.Model()}
		if cacheable && q.cache != nil {
			q.cache.Add(key, answer)
		}
	}

	now := q.now()
	q.record(ctx, sid, prompt, answer, now)
	c.JSON(http.StatusOK, chat.QueryResponse{
		Response:     answer.Response,
		Model:        answer.Model,
		Timestamp:    unixSeconds(now),
		SessionToken: token,
	})
}

func (q Query) clean(prompt string) string {
	s := html.UnescapeString(q.sanitize.Sanitize(prompt))
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxPromptRunes {
		s = string(r[:maxPromptRunes])
	}
	return s
}

// session maps a request token to a session id. A signed token yields its sid;
// any other short token becomes an id under anonPrefix, which no signed sid
// can carry. An empty token starts a new session.
func (q Query) session(token string) (sid, out string, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		sid = uuid.NewString()
		out, err = issueSessionToken(sid, q.secret, q.now())
		return sid, out, err
	}
	if sid, err := parseSessionToken(token, q.secret); err == nil {
		return sid, token, nil
	}
	if len(token) > maxOpaqueToken || strings.Count(token, ".") == 2 {
		return "", "", errBadToken
	}
	return anonPrefix + token, token, nil
}

func (q Query) stored(ctx context.Context, sid string) []chat.Message {
	conv, err := q.store.Load(ctx, sid)
	if err != nil {
		if !errors.Is(err, chat.ErrNoConversation) {
			q.log.Warn("load conversation", zap.String("sid", sid), zap.Error(err))
		}
		return nil
	}
	return conv.Messages
}

func (q Query) record(ctx context.Context, sid, prompt string, answer cachedAnswer, now time.Time) {
	id := now.UnixMilli()
	_, err := q.store.Append(ctx, sid, maxStoredMessages,
		chat.Message{ID: id, Type: chat.TypeUser, Content: prompt, Timestamp: now},
		chat.Message{ID: id + 1, Type: chat.TypeAssistant, Content: answer.Response, Timestamp: now, Model: answer.Model},
	)
	if err != nil {
		q.log.Warn("save conversation", zap.String("sid", sid), zap.Error(err))
	}

	if q.db == nil {
		return
	}
	for _, m := range []data.ChatMessage{
		{SessionID: sid, Role: chat.TypeUser, Content: prompt, CreatedAt: now},
		{SessionID: sid, Role: chat.TypeAssistant, Content: answer.Response, Model: answer.Model, Source: q.source, CreatedAt: now},
	} {
		if err := data.LogChatMessage(ctx, q.db, &m); err != nil {
			q.log.Warn("audit chat message", zap.String("sid", sid), zap.Error(err))
			return
		}
	}
}

// toTurns converts the last n user and assistant messages. Error entries are
// display-only and never sent upstream.
func toTurns(msgs []chat.Message, n int) []core.Message {
	out := make([]core.Message, 0, n)
	for _, m := range msgs {
		switch m.Type {
		case chat.TypeUser:
			out = append(out, core.Message{Role: core.RoleUser, Content: m.Content})
		case chat.TypeAssistant:
			out = append(out, core.Message{Role: core.RoleAssistant, Content: m.Content})
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func cacheKey(prompt string) uint64 {
	return xxhash.Checksum64([]byte(strings.ToLower(strings.Join(strings.Fields(prompt), " "))))
}
