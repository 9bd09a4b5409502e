package cmds

import (
	"context"
	"net/http"
	"time"

	"github.com/go-go-golems/palaver/pkg/ai"
	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/go-go-golems/palaver/pkg/helpers"
	"github.com/go-go-golems/palaver/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// App bundles what every command needs: settings, the seeded registry and the ai client.
type App struct {
	Settings     *ai.Settings
	ChatSettings *chat.Settings
	Registry     *conversation.Registry
	Metrics      *metrics.Metrics
	Client       *ai.Client
}

func LoadSettings() (*ai.Settings, *chat.Settings, error) {
	settings := ai.NewSettings()
	if err := viper.Unmarshal(settings); err != nil {
		return nil, nil, errors.Wrap(err, "could not load ai settings")
	}
	chatSettings := chat.NewSettings()
	if err := viper.Unmarshal(chatSettings); err != nil {
		return nil, nil, errors.Wrap(err, "could not load chat settings")
	}
	return settings, chatSettings, nil
}

// NewApp loads the configuration and seed. When --metrics-addr is set, metrics are
// served until ctx is done.
func NewApp(ctx context.Context) (*App, error) {
	settings, chatSettings, err := LoadSettings()
	if err != nil {
		return nil, err
	}

	seed, err := conversation.LoadSeedFile(viper.GetString("seed"))
	if err != nil {
		return nil, err
	}
	registry, err := seed.Registry(time.Now())
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	if addr := viper.GetString("metrics-addr"); addr != "" {
		serveMetrics(ctx, addr, reg)
	}

	client, err := ai.NewClientFromSettings(settings, m)
	if err != nil {
		return nil, err
	}

	return &App{
		Settings:     settings,
		ChatSettings: chatSettings,
		Registry:     registry,
		Metrics:      m,
		Client:       client,
	}, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func (a *App) NewHub(options ...chat.HubOption) (*chat.Hub, error) {
	options = append([]chat.HubOption{
		chat.WithSettings(a.ChatSettings),
		chat.WithMetrics(a.Metrics),
	}, options...)
	return chat.NewHub(a.Registry, a.Client, options...)
}

func NewRouter(options ...events.EventRouterOption) (*events.EventRouter, error) {
	options = append([]events.EventRouterOption{
		events.WithLogger(helpers.NewWatermill(log.Logger)),
	}, options...)
	return events.NewEventRouter(options...)
}
