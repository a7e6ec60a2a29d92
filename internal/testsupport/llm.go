package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// ChatServer is a fake chat completion endpoint.
type ChatServer struct {
	*httptest.Server
	calls atomic.Int32
}

// Calls reports how many completion requests were served.
func (s *ChatServer) Calls() int {
	return int(s.calls.Load())
}

// NewChatServer serves chat completions whose content is produced by reply.
// reply receives the 1-based call number with the system and user prompts.
func NewChatServer(t testing.TB, reply func(call int, system, user string) string) *ChatServer {
	t.Helper()

	srv := &ChatServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var system, user string
		for _, msg := range req.Messages {
			switch msg.Role {
			case "system":
				system = msg.Content
			case "user":
				user = msg.Content
			}
		}
		call := int(srv.calls.Add(1))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"content": reply(call, system, user)},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}
