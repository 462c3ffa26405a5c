package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SaiNageswarS/chatbot-boot/chat"
	"github.com/SaiNageswarS/chatbot-boot/llm"
	"github.com/SaiNageswarS/chatbot-boot/memory"
	"github.com/SaiNageswarS/chatbot-boot/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingModel struct {
	mu    sync.Mutex
	calls [][]llm.Message
	reply string
	err   error
}

func (m *recordingModel) GetModel() string { return "recording" }

func (m *recordingModel) GenerateInference(ctx context.Context, messages []llm.Message, callback func(chunk string) error, opts ...llm.LLMOption) error {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	return callback(m.reply)
}

type testEnv struct {
	handler http.Handler
	model   *recordingModel
	store   *memory.SessionStore
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	model := &recordingModel{reply: "Hello!"}
	store := memory.NewSessionStore(memory.StoreConfig{})
	m := metrics.New(store.Len)
	bot := chat.NewChatbot(chat.Config{SystemPrompt: "be helpful"}, store, func(apiKey string) (llm.LLMClient, error) {
		return model, nil
	}).WithMetrics(m)

	return &testEnv{
		handler: NewRouter(ProvideChatbotService(bot, m), m),
		model:   model,
		store:   store,
		metrics: m,
	}
}

func (e *testEnv) post(t *testing.T, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, ChatbotPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestChatbotService_Success(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.post(t, `{"session_id":"s1","text":"Hi","openai_api_key":"k"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "success", "data": "Hello!"}, body)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	conv, ok := env.store.Get("s1")
	require.True(t, ok)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "Hello!"},
	}, conv.Messages())

	env.model.reply = "Doing well."
	rec, body = env.post(t, `{"session_id":"s1","text":"How are you?","openai_api_key":"k"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Doing well.", body["data"])

	require.Len(t, env.model.calls, 2)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "Hello!"},
		{Role: llm.RoleUser, Content: "How are you?"},
	}, env.model.calls[1])
}

func TestChatbotService_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, "No JSON data found in the request."},
		{"invalid json", `{"session_id":`, "No JSON data found in the request."},
		{"empty object", `{}`, "No JSON data found in the request."},
		{"null", `null`, "No JSON data found in the request."},
		{"array", `["s1","Hi"]`, "No JSON data found in the request."},
		{"missing session_id", `{"text":"Hi","openai_api_key":"k"}`, "Missing 'session_id' or 'text' in the request."},
		{"missing text", `{"session_id":"s1","openai_api_key":"k"}`, "Missing 'session_id' or 'text' in the request."},
		{"empty text", `{"session_id":"s1","text":"","openai_api_key":"k"}`, "Missing 'session_id' or 'text' in the request."},
		{"non-string session_id", `{"session_id":42,"text":"Hi","openai_api_key":"k"}`, "Missing 'session_id' or 'text' in the request."},
		{"missing key", `{"session_id":"s1","text":"Hi"}`, "Missing 'openai_api_key' in the request."},
		{"empty key", `{"session_id":"s1","text":"Hi","openai_api_key":""}`, "Missing 'openai_api_key' in the request."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec, body := env.post(t, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]string{"error": tt.want}, body)
			assert.Empty(t, env.model.calls)
			assert.Equal(t, 0, env.store.Len())
		})
	}
}

func TestChatbotService_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)

	_, _ = env.post(t, `{"session_id":"s1","text":"Hi","openai_api_key":"k"}`)

	env.model.err = errors.New("error, status code: 401, message: Incorrect API key provided")
	rec, body := env.post(t, `{"session_id":"s1","text":"Again","openai_api_key":"bad"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]string{"error": "error, status code: 401, message: Incorrect API key provided"}, body)

	conv, _ := env.store.Get("s1")
	assert.Equal(t, 2, conv.Len())

	expected := `
# HELP chatbot_requests_total Chatbot requests by HTTP status code.
# TYPE chatbot_requests_total counter
chatbot_requests_total{code="200"} 1
chatbot_requests_total{code="500"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(env.metrics.Registry(), strings.NewReader(expected), "chatbot_requests_total"))
}

func TestChatbotService_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ChatbotPath, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestRouter_Preflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, ChatbotPath, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.True(t, strings.EqualFold("content-type", rec.Header().Get("Access-Control-Allow-Headers")))
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, env.model.calls)
	assert.Equal(t, 0, env.store.Len())
}

func TestRouter_CrossOriginErrorResponse(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.post(t, `{"session_id":"s1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing 'session_id' or 'text' in the request.", body["error"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_HealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatbot_sessions_resident")
}

func TestRouter_RequestIDPropagation(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestWithRecovery(t *testing.T) {
	handler := WithRequestID(WithRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, ChatbotPath, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
