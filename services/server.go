package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/SaiNageswarS/chatbot-boot/metrics"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const ChatbotPath = "/api/chatbot"

// NewRouter wires the chatbot endpoint, health check and metrics behind the
// shared middleware chain.
func NewRouter(chatbot *ChatbotService, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(ChatbotPath, chatbot)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.Handle("/metrics", m.Handler())

	var handler http.Handler = mux
	handler = cors.AllowAll().Handler(handler)
	handler = WithRecovery(handler)
	handler = WithAccessLog(handler)
	handler = WithRequestID(handler)
	return handler
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Serve runs handler on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, listener, handler, shutdownTimeout)
}

func serveListener(ctx context.Context, listener net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", listener.Addr().String()))
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
