// Package wire provides dependency injection for the clarence application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/example/clarence/internal/adapters/advice"
	cliadapter "github.com/example/clarence/internal/adapters/cli"
	"github.com/example/clarence/internal/adapters/notify"
	"github.com/example/clarence/internal/adapters/sqlite"
	"github.com/example/clarence/internal/app"
	"github.com/example/clarence/internal/catalogue"
	"github.com/example/clarence/internal/config"
	"github.com/example/clarence/internal/db"
	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/ports/secondary"
)

var (
	cfg                = config.Default()
	logger             = zap.NewNop()
	negotiationService primary.NegotiationService
	activeCatalogue    catalogue.Catalogue
	console            = notify.NewConsoleNotifier(os.Stdout)
	once               sync.Once
)

// Configure sets the configuration and logger used when services are first
// built. It must be called before any accessor.
func Configure(c *config.Config, l *zap.Logger) {
	if c != nil {
		cfg = c
	}
	if l != nil {
		logger = l
	}
}

// NegotiationService returns the singleton NegotiationService instance.
func NegotiationService() primary.NegotiationService {
	once.Do(initServices)
	return negotiationService
}

// Catalogue returns the stage catalogue the services were built with.
func Catalogue() catalogue.Catalogue {
	once.Do(initServices)
	return activeCatalogue
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	if cfg.DBPath != "" {
		db.SetPath(cfg.DBPath)
	}
	database, err := db.GetDB()
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	activeCatalogue, err = catalogue.Load(cfg.CataloguePath)
	if err != nil {
		logger.Fatal("failed to load catalogue", zap.String("path", cfg.CataloguePath), zap.Error(err))
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	sessionRepo := sqlite.NewSessionRepository(database)
	eventLog := sqlite.NewEventLogRepository(database)

	notifier := notify.Multi{
		notify.NewLogNotifier(logger),
		console,
	}
	executor := app.NewEffectExecutor(eventLog, notifier, logger)

	negotiationService = app.NewNegotiationService(sessionRepo, eventLog, newAdvisor(), executor, activeCatalogue,
		app.NegotiationOptions{
			AdviceTimeout:     cfg.Advice.Timeout(),
			MaxParallelAdvice: cfg.Advice.MaxParallel,
			Logger:            logger,
		})
}

// newAdvisor builds the configured advice generator. A Gemini provider
// without an API key falls back to the offline heuristic.
func newAdvisor() secondary.AdviceGenerator {
	switch cfg.Advice.Provider {
	case config.ProviderNone:
		return nil
	case config.ProviderGenAI:
		key := config.APIKey()
		if key == "" {
			logger.Warn("no Gemini API key set, using offline advice",
				zap.Strings("env", []string{config.EnvGeminiKey, config.EnvGoogleKey}))
			return advice.NewOfflineGenerator()
		}
		g, err := advice.NewGenAIGenerator(context.Background(), key, cfg.Advice.Model)
		if err != nil {
			logger.Warn("failed to create Gemini client, using offline advice", zap.Error(err))
			return advice.NewOfflineGenerator()
		}
		logger.Debug("advice generator ready", zap.String("generator", g.Name()))
		return g
	default:
		return advice.NewOfflineGenerator()
	}
}

// NegotiationAdapter returns a new NegotiationAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func NegotiationAdapter() *cliadapter.NegotiationAdapter {
	return NegotiationAdapterWithOutput(os.Stdout)
}

// NegotiationAdapterWithOutput returns a new NegotiationAdapter writing to the given output.
// Console notifications raised by its calls go to the same output.
func NegotiationAdapterWithOutput(out io.Writer) *cliadapter.NegotiationAdapter {
	once.Do(initServices)
	console.SetOutput(out)
	return cliadapter.NewNegotiationAdapter(negotiationService, out)
}
