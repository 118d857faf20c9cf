package bootstrap

import (
	"ChatSyncAPI/internal/adapter"
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/controller"
	"ChatSyncAPI/internal/health"
	"ChatSyncAPI/internal/middleware"
	"ChatSyncAPI/internal/repository"
	"ChatSyncAPI/internal/service"
	"ChatSyncAPI/internal/websocket"
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	RealtimeDriverRedis = "redis"
	RealtimeDriverNats  = "nats"
	RealtimeDriverLocal = "local"
)

// App holds the long-running pieces the entrypoint has to start and stop.
type App struct {
	Router         *chi.Mux
	Hub            *websocket.Hub
	Relay          adapter.EventRelay
	RefreshLimiter *config.RefreshLimiter

	closers []func() error
}

func Init(ctx context.Context, appConfig *config.AppConfig, drv *entsql.Driver, redisAdapter *adapter.RedisAdapter, validator *validator.Validate, s3Client *s3.Client, chiMux *chi.Mux) (*App, error) {
	app := &App{Router: chiMux}

	bus := websocket.NewBus()
	hub := websocket.NewHub(bus)
	app.Hub = hub

	monitor := health.NewMonitor()
	monitor.AddCheck("database", func(ctx context.Context) error {
		return drv.DB().PingContext(ctx)
	})
	monitor.AddCheck("redis", redisAdapter.Ping)

	relay, err := newEventRelay(ctx, appConfig, redisAdapter, bus, monitor)
	if err != nil {
		return nil, err
	}
	app.Relay = relay
	if closer, ok := relay.(interface{ Close() error }); ok {
		app.closers = append(app.closers, closer.Close)
	}

	repo := repository.NewRepository(drv, redisAdapter)
	storageAdapter := adapter.NewStorageAdapter(appConfig, s3Client)

	chatListService := service.NewChatListService(repo.ChatList, relay, storageAdapter, monitor, validator)
	unreadService := service.NewUnreadCountService(repo.Unread, monitor)
	authService := service.NewAuthService(appConfig)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(repo.RateLimit, appConfig)

	refreshLimiter := config.NewRefreshLimiter(appConfig)
	app.RefreshLimiter = refreshLimiter

	chatListController := controller.NewChatListController(chatListService, unreadService)
	wsController := controller.NewWebSocketController(appConfig, hub, bus, chatListService, unreadService, refreshLimiter, validator)
	healthController := controller.NewHealthController(monitor, hub)

	route := NewRoute(appConfig, chiMux, authMiddleware, rateLimitMiddleware, chatListController, wsController, healthController)
	route.Register()

	return app, nil
}

func newEventRelay(ctx context.Context, appConfig *config.AppConfig, redisAdapter *adapter.RedisAdapter, bus *websocket.Bus, monitor *health.Monitor) (adapter.EventRelay, error) {
	switch appConfig.RealtimeDriver {
	case RealtimeDriverNats:
		relay, err := adapter.NewNatsEventRelay(ctx, appConfig, bus)
		if err != nil {
			return nil, err
		}
		monitor.AddCheck("nats", relay.Ping)
		return relay, nil
	case RealtimeDriverLocal:
		slog.Warn("Realtime events stay inside this instance", "driver", RealtimeDriverLocal)
		return adapter.NewLocalEventPublisher(bus), nil
	case RealtimeDriverRedis, "":
		return adapter.NewRedisEventRelay(redisAdapter, appConfig, bus), nil
	default:
		slog.Warn("Unknown realtime driver, falling back to redis", "driver", appConfig.RealtimeDriver)
		return adapter.NewRedisEventRelay(redisAdapter, appConfig, bus), nil
	}
}

// Close stops the hub and releases relay connections. The relay's Run loop
// should already have returned.
func (a *App) Close() {
	a.Hub.Stop()
	a.RefreshLimiter.Stop()
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			slog.Error("Error closing realtime relay", "error", err)
		}
	}
}
