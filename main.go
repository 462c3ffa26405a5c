package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/chatbot-boot/appconfig"
	"github.com/SaiNageswarS/chatbot-boot/chat"
	"github.com/SaiNageswarS/chatbot-boot/llm"
	"github.com/SaiNageswarS/chatbot-boot/memory"
	"github.com/SaiNageswarS/chatbot-boot/metrics"
	"github.com/SaiNageswarS/chatbot-boot/prompts"
	"github.com/SaiNageswarS/chatbot-boot/services"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "chatbot",
		Short:         "Session-aware chatbot HTTP service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.ini", "path to the ini config file")

	var port string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/chatbot",
		RunE: func(cmd *cobra.Command, args []string) error {
			dotenv.LoadEnv()

			// load config file
			ccfgg, err := appconfig.Load(configPath)
			if err != nil {
				logger.Error("Failed to load config", zap.String("path", configPath), zap.Error(err))
				return err
			}
			if port != "" {
				ccfgg.HttpPort = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, ccfgg)
		},
	}
	serve.Flags().StringVar(&port, "port", "", "listen address, overrides http_port (e.g. :8080)")

	root.AddCommand(serve)
	return root
}

func run(ctx context.Context, ccfgg *appconfig.AppConfig) error {
	systemPrompt, err := prompts.RenderChatSystemPrompt(ccfgg.Language)
	if err != nil {
		logger.Error("Failed to render system prompt", zap.Error(err))
		return err
	}

	newClient, err := llm.NewClientFactory(ccfgg.ProviderConfig())
	if err != nil {
		logger.Error("Failed to configure model provider", zap.Error(err))
		return err
	}

	var m *metrics.Metrics
	sessions := memory.NewSessionStore(memory.StoreConfig{
		MaxSessions: ccfgg.MaxSessions,
		IdleTTL:     ccfgg.SessionTTL,
		OnEvict: func(id string, reason memory.EvictReason) {
			m.SessionEvicted(string(reason))
		},
	})
	m = metrics.New(sessions.Len)

	go sessions.RunJanitor(ctx, ccfgg.JanitorInterval)

	bot := chat.NewChatbot(chat.Config{
		SystemPrompt:    systemPrompt,
		Provider:        ccfgg.Provider,
		Temperature:     ccfgg.Temperature,
		MaxTokens:       ccfgg.MaxTokens,
		UpstreamTimeout: ccfgg.UpstreamTimeout,
	}, sessions, newClient).WithMetrics(m)

	router := services.NewRouter(services.ProvideChatbotService(bot, m), m)

	logger.Info("Chatbot configured",
		zap.String("provider", ccfgg.Provider),
		zap.String("model", ccfgg.ModelName),
		zap.String("language", prompts.ResolveLanguage(ccfgg.Language)),
		zap.Int("max_sessions", ccfgg.MaxSessions),
		zap.Duration("session_ttl", ccfgg.SessionTTL))

	if err := services.Serve(ctx, ccfgg.HttpPort, router, ccfgg.ShutdownTimeout); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
		return err
	}
	return nil
}
