package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockOpenAIServer 模拟 OpenAI Chat Completion 接口；
// respond 根据收到的用户消息决定回复内容
type mockOpenAIServer struct {
	server  *httptest.Server
	respond func(userMessage string) (string, int)

	mu       sync.Mutex
	requests []string
}

func newMockOpenAIServer(t *testing.T, respond func(userMessage string) (string, int)) *mockOpenAIServer {
	mock := &mockOpenAIServer{respond: respond}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requestBody struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "无法解析请求体", "type": "invalid_request_error"}}`))
			return
		}

		var userMessage string
		for _, msg := range requestBody.Messages {
			if msg.Role == "user" {
				userMessage = msg.Content
				break
			}
		}
		mock.mu.Lock()
		mock.requests = append(mock.requests, userMessage)
		mock.mu.Unlock()

		content, status := mock.respond(userMessage)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": {"message": "模拟服务器错误", "type": "server_error"}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-mock",
			"object":  "chat.completion",
			"model":   requestBody.Model,
			"choices": []map[string]interface{}{
				{
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
					"index":         0,
				},
			},
		})
	}))

	t.Cleanup(mock.server.Close)
	return mock
}

func (m *mockOpenAIServer) lastRequest() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ""
	}
	return m.requests[len(m.requests)-1]
}

func newTestProvider(mock *mockOpenAIServer) *OpenAIProvider {
	return NewOpenAIProvider("test-key", mock.server.URL+"/v1", "gpt-4o-mini", "en", "zh", zap.NewNop())
}

func TestOpenAIProviderTranslate(t *testing.T) {
	t.Run("Returns Translation", func(t *testing.T) {
		mock := newMockOpenAIServer(t, func(userMessage string) (string, int) {
			return "你好，世界", http.StatusOK
		})
		p := newTestProvider(mock)

		result, err := p.Translate(context.Background(), "Sample Page", "Hello, world")
		require.NoError(t, err)
		assert.Equal(t, "你好，世界", result)

		// 原文与文档上下文都进入提示词
		assert.Contains(t, mock.lastRequest(), "Hello, world")
		assert.Contains(t, mock.lastRequest(), "Sample Page")
	})

	t.Run("Server Error", func(t *testing.T) {
		mock := newMockOpenAIServer(t, func(userMessage string) (string, int) {
			return "", http.StatusInternalServerError
		})
		p := newTestProvider(mock)

		_, err := p.Translate(context.Background(), "", "Hello")
		assert.Error(t, err)
	})

	t.Run("Context Cancelled", func(t *testing.T) {
		mock := newMockOpenAIServer(t, func(userMessage string) (string, int) {
			return "你好", http.StatusOK
		})
		p := newTestProvider(mock)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Translate(ctx, "", "Hello")
		assert.Error(t, err)
	})
}

func TestOpenAIProviderTranslateBatch(t *testing.T) {
	t.Run("Maps By Index", func(t *testing.T) {
		mock := newMockOpenAIServer(t, func(userMessage string) (string, int) {
			return `["一", "二", "三"]`, http.StatusOK
		})
		p := newTestProvider(mock)

		results, err := p.TranslateBatch(context.Background(), "", []string{"one", "two", "three"})
		require.NoError(t, err)
		assert.Equal(t, []string{"一", "二", "三"}, results)

		// 请求以 JSON 数组编码
		assert.Contains(t, mock.lastRequest(), `["one","two","three"]`)
	})

	t.Run("Strips Code Fences", func(t *testing.T) {
		mock := newMockOpenAIServer(t, func(userMessage string) (string, int) {
			return "```json\n[\"一\", \"二\"]\n```", http.StatusOK
		})
		p := newTestProvider(mock)

		results, err := p.TranslateBatch(context.Background(), "", []string{"one", "two"})
		require.NoError(t, err)
		assert.Equal(t, []string{"一", "二"}, results)
	})

	t.Run("Length Mismatch Is An Error", func(t *testing.T) {
		mock := newMockOpenAIServer(t, func(userMessage string) (string, int) {
			return `["一"]`, http.StatusOK
		})
		p := newTestProvider(mock)

		_, err := p.TranslateBatch(context.Background(), "", []string{"one", "two"})
		assert.Error(t, err)
	})

	t.Run("Invalid JSON Is An Error", func(t *testing.T) {
		mock := newMockOpenAIServer(t, func(userMessage string) (string, int) {
			return "这不是 JSON", http.StatusOK
		})
		p := newTestProvider(mock)

		_, err := p.TranslateBatch(context.Background(), "", []string{"one"})
		assert.Error(t, err)
	})
}
