package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/skaldic/muse/internal/agent"
	"github.com/skaldic/muse/internal/capture"
	"github.com/skaldic/muse/internal/metrics"
	"github.com/skaldic/muse/internal/novelty"
	"github.com/skaldic/muse/internal/pipeline"
	"github.com/skaldic/muse/internal/sink"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	queue   *pipeline.Queue
	model   *novelty.Model
	metrics *metrics.Metrics
	recent  *sink.Recent
	push    *capture.PushSource
	agents  []agent.Definition
	started time.Time
	logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	queue *pipeline.Queue,
	model *novelty.Model,
	m *metrics.Metrics,
	recent *sink.Recent,
	push *capture.PushSource,
	agents []agent.Definition,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		queue:   queue,
		model:   model,
		metrics: m,
		recent:  recent,
		push:    push,
		agents:  agents,
		started: time.Now(),
		logger:  logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/status", h.status)
		r.Get("/agents", h.listAgents)
		r.Get("/records", h.listRecords)
		r.Post("/capture", h.pushCapture)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "muse"})
}

type statusResponse struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	QueueLen      int              `json:"queue_len"`
	QueueCap      int              `json:"queue_cap"`
	Agents        int              `json:"agents"`
	Pipeline      metrics.Snapshot `json:"pipeline"`
	Novelty       novelty.Stats    `json:"novelty"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		UptimeSeconds: time.Since(h.started).Seconds(),
		QueueLen:      h.queue.Len(),
		QueueCap:      h.queue.Cap(),
		Agents:        len(h.agents),
		Pipeline:      h.metrics.Snapshot(),
		Novelty:       h.model.Snapshot(),
	})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agents)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	recs := h.recent.List(limit)
	if recs == nil {
		recs = []*agent.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type captureRequest struct {
	Content string `json:"content"`
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`
}

func (h *Handler) pushCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	var it *capture.Item
	switch strings.ToLower(req.Kind) {
	case "", string(capture.KindText):
		it = capture.NewTextItem(req.Content)
	case string(capture.KindImage):
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image content must be base64"})
			return
		}
		it = capture.NewImageItem(data, req.Path)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be text or image"})
		return
	}

	h.push.Offer(it)
	h.logger.Debug("capture offered",
		zap.String("kind", string(it.Kind)),
		zap.String("fingerprint", it.Fingerprint.Short()),
		zap.Int("size_bytes", it.Size()))

	writeJSON(w, http.StatusAccepted, map[string]string{
		"fingerprint": it.Fingerprint.String(),
		"kind":        string(it.Kind),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
