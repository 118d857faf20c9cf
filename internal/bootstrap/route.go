package bootstrap

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/controller"
	"ChatSyncAPI/internal/middleware"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const apiTimeout = 30 * time.Second

type Route struct {
	cfg                 *config.AppConfig
	chi                 *chi.Mux
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	chatListController  *controller.ChatListController
	wsController        *controller.WebSocketController
	healthController    *controller.HealthController
}

func NewRoute(cfg *config.AppConfig, chi *chi.Mux, authMiddleware *middleware.AuthMiddleware, rateLimitMiddleware *middleware.RateLimitMiddleware, chatListController *controller.ChatListController, wsController *controller.WebSocketController, healthController *controller.HealthController) *Route {
	return &Route{
		cfg:                 cfg,
		chi:                 chi,
		authMiddleware:      authMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		chatListController:  chatListController,
		wsController:        wsController,
		healthController:    healthController,
	}
}

func (route *Route) Register() {
	route.chi.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to ChatSyncAPI"))
	})

	route.chi.Get("/health", route.healthController.GetHealth)

	route.chi.With(route.authMiddleware.VerifyWSToken).Get("/ws", route.wsController.ServeWS)

	route.chi.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(apiTimeout))

		r.Group(func(r chi.Router) {
			r.Use(route.authMiddleware.VerifyToken)

			r.Get("/chats", route.chatListController.GetChats)
			r.Get("/chats/unread-count", route.chatListController.GetUnreadCount)
			r.Get("/chats/{type}/{id}", route.chatListController.GetChatPreview)

			r.Group(func(r chi.Router) {
				r.Use(route.rateLimitMiddleware.Limit("chat_mutation", route.cfg.MutationRateLimit, route.cfg.MutationRateLimitWindow))

				r.Post("/chats/{type}/{id}/read", route.chatListController.MarkChatAsRead)
				r.Delete("/chats/{type}/{id}", route.chatListController.DeleteChat)
			})
		})
	})
}
