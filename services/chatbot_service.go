package services

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/SaiNageswarS/chatbot-boot/chat"
	"github.com/SaiNageswarS/chatbot-boot/metrics"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

type ChatbotService struct {
	bot     *chat.Chatbot
	metrics *metrics.Metrics
}

func ProvideChatbotService(bot *chat.Chatbot, m *metrics.Metrics) *ChatbotService {
	return &ChatbotService{
		bot:     bot,
		metrics: m,
	}
}

type successResponse struct {
	Status string `json:"status"`
	Data   string `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles POST /api/chatbot.
func (s *ChatbotService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := RequestIDFromContext(r.Context())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.respond(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed."}, start)
		return
	}

	req, err := decodeChatRequest(r)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		logger.Error(err.Error(), zap.String("request_id", requestID))
		s.respond(w, chat.StatusCode(err), errorResponse{Error: err.Error()}, start)
		return
	}

	reply, err := s.bot.Reply(r.Context(), req)
	if err != nil {
		status := chat.StatusCode(err)
		logger.Error("An error occurred while processing the request.",
			zap.String("request_id", requestID),
			zap.String("session_id", req.SessionID),
			zap.Int("status", status),
			zap.Error(err),
			zap.Stack("stack"))
		s.respond(w, status, errorResponse{Error: err.Error()}, start)
		return
	}

	s.respond(w, http.StatusOK, successResponse{Status: "success", Data: reply}, start)
}

func (s *ChatbotService) respond(w http.ResponseWriter, status int, body any, start time.Time) {
	writeJSON(w, status, body)
	s.metrics.ObserveRequest(status, time.Since(start))
}

// decodeChatRequest reads the JSON body. Anything that is not a non-empty JSON
// object is reported as a missing body; fields that are absent or not strings
// are left empty for Validate to reject.
func decodeChatRequest(r *http.Request) (chat.Request, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil || len(raw) > maxRequestBytes {
		return chat.Request{}, chat.ErrMissingBody
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || len(data) == 0 {
		return chat.Request{}, chat.ErrMissingBody
	}

	return chat.Request{
		SessionID: stringField(data, "session_id"),
		Text:      stringField(data, "text"),
		APIKey:    stringField(data, "openai_api_key"),
	}, nil
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
