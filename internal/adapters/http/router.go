package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/antonvels/edu-rag-chat/internal/config"
	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
	"github.com/antonvels/edu-rag-chat/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg     config.Config
	chat    ports.ChatService
	ingest  ports.DocumentIngestor
	docs    ports.DocumentReader
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	chat ports.ChatService,
	ingest ports.DocumentIngestor,
	docs ports.DocumentReader,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		chat:    chat,
		ingest:  ingest,
		docs:    docs,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chatAsk)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) chatAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	resp := rt.chat.Ask(r.Context(), req)

	if rt.metrics != nil {
		rt.metrics.RecordChat(serviceName, resp.ChunksUsed, resp.Confidence, time.Since(start))
		if resp.FollowUp != nil {
			rt.metrics.RecordFollowUp(serviceName, resp.FollowUp.Type)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		r.FormValue("namespace"),
		file,
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
