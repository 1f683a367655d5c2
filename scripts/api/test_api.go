// Minimal end-to-end check of a running MMR API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080")
	redisURL = os.Getenv("REDIS_URL")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	doReq("GET", "/healthz", "", nil, nil, http.StatusOK)

	token := newSession()
	prompt := "integration-test " + uuid.NewString()
	query(token, prompt)
	checkHistory(token, prompt)
	checkRedis()

	etag := listProfiles()
	checkNotModified(etag)
	checkEvaluate()

	doReq("DELETE", "/v1/session/history", token, nil, nil, http.StatusNoContent)
	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- chat

func newSession() string {
	var resp struct{ SessionToken string }
	doReq("POST", "/v1/session", "", nil, &resp, http.StatusCreated)
	if resp.SessionToken == "" {
		log.Fatal("session: empty token")
	}
	return resp.SessionToken
}

func query(token, prompt string) {
	var resp struct{ Response, Model string }
	doReq("POST", "/api/mmr/query", "", map[string]any{
		"prompt":              prompt,
		"conversationHistory": []any{},
		"sessionToken":        token,
	}, &resp, http.StatusOK)
	if resp.Response == "" {
		log.Fatal("query: empty response")
	}
}

func checkHistory(token, prompt string) {
	var resp struct {
		Messages []struct{ Type, Content string }
	}
	doReq("GET", "/v1/session/history", token, nil, &resp, http.StatusOK)
	for _, m := range resp.Messages {
		if m.Type == "user" && m.Content == prompt {
			return
		}
	}
	log.Fatal("history: prompt not recorded")
}

// checkRedis confirms the conversation landed in Redis when one is configured.
func checkRedis() {
	if redisURL == "" {
		return
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	keys, err := rdb.Keys(context.Background(), "mmr:conversation:*").Result()
	if err != nil {
		log.Fatalf("redis keys: %v", err)
	}
	if len(keys) == 0 {
		log.Fatal("redis: no conversations stored")
	}
}

// ----------------------------- catalog

func listProfiles() string {
	var resp struct{ Count int }
	res := doReq("GET", "/v1/profiles", "", nil, &resp, http.StatusOK)
	if resp.Count == 0 {
		log.Fatal("profiles: empty catalog")
	}
	return res.Header.Get("ETag")
}

func checkNotModified(etag string) {
	if etag == "" {
		log.Fatal("profiles: no ETag")
	}
	doReq("GET", "/v1/profiles", "", nil, nil, http.StatusNotModified, "If-None-Match", etag)
}

func checkEvaluate() {
	var resp struct {
		Evaluation struct{ Outcome string }
	}
	doReq("POST", "/v1/evaluate", "", map[string]any{"name": "Nobody", "pillars": []any{}}, &resp, http.StatusOK)
	if resp.Evaluation.Outcome != "No Assessment" {
		log.Fatalf("evaluate: got %q", resp.Evaluation.Outcome)
	}
}

// ----------------------------- helpers

func doReq(method, path, token string, body, out any, want int, headers ...string) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
	return res
}
