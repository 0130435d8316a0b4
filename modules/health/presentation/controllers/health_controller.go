package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
)

type healthResponse struct {
	Timestamp     string  `json:"timestamp"`
	UptimeMinutes float64 `json:"uptimeMinutes"`
}

type versionResponse struct {
	Version string `json:"version"`
}

type HealthController struct {
	version   string
	startedAt time.Time
	now       func() time.Time
}

func NewHealthController(version string, startedAt time.Time) application.Controller {
	return &HealthController{
		version:   version,
		startedAt: startedAt,
		now:       time.Now,
	}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Health).Methods(http.MethodGet)
	r.HandleFunc("/version", c.Version).Methods(http.MethodGet)
}

func (c *HealthController) Health(w http.ResponseWriter, _ *http.Request) {
	now := c.now()
	_ = httpapi.WriteJSON(w, http.StatusOK, healthResponse{
		Timestamp:     now.UTC().Format("2006-01-02T15:04:05.000Z"),
		UptimeMinutes: now.Sub(c.startedAt).Minutes(),
	})
}

func (c *HealthController) Version(w http.ResponseWriter, _ *http.Request) {
	_ = httpapi.WriteJSON(w, http.StatusOK, versionResponse{Version: c.version})
}
