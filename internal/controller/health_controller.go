package controller

import (
	"ChatSyncAPI/internal/health"
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/websocket"
	"net/http"
)

type HealthController struct {
	monitor *health.Monitor
	hub     *websocket.Hub
}

func NewHealthController(monitor *health.Monitor, hub *websocket.Hub) *HealthController {
	return &HealthController{
		monitor: monitor,
		hub:     hub,
	}
}

type HealthResponse struct {
	health.Status
	Connections int `json:"connections"`
}

// GetHealth godoc
// @Summary      Health Check
// @Description  Dependency checks plus rolling timings of chat list queries.
// @Tags         health
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess{data=HealthResponse}
// @Failure      503  {object}  helper.ResponseSuccess{data=HealthResponse}
// @Router       /health [get]
func (c *HealthController) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: c.monitor.Status(r.Context())}
	if c.hub != nil {
		resp.Connections = c.hub.ClientCount()
	}

	code := http.StatusOK
	if !resp.IsHealthy {
		code = http.StatusServiceUnavailable
	}
	helper.WriteJSON(w, code, helper.ResponseSuccess{Data: resp})
}
