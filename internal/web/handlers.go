package web

import (
	"embed"
	"html/template"
	"net/http"

	"cluster-monitor/internal/monitor"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

type Handlers struct {
	cache        *monitor.Cache
	hub          *Hub
	trackedCoins []string
	refreshSec   int
	tmpl         *template.Template
	logger       zerolog.Logger
}

func NewHandlers(cache *monitor.Cache, hub *Hub, trackedCoins []string, refreshSec int, logger zerolog.Logger) *Handlers {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))
	return &Handlers{
		cache:        cache,
		hub:          hub,
		trackedCoins: trackedCoins,
		refreshSec:   refreshSec,
		tmpl:         tmpl,
		logger:       logger,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/api/data", h.handleData)
	mux.HandleFunc("/healthz", h.handleHealthz)
	if h.hub != nil {
		mux.HandleFunc("/ws", h.hub.ServeWS)
	}
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		TrackedCoins []string
		RefreshSec   int
	}{h.trackedCoins, h.refreshSec}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		h.logger.Error().Err(err).Msg("template render failed")
	}
}

// emptyDataBody mirrors the pre-first-refresh snapshot. Served if the
// current snapshot ever fails to encode, so the endpoint never answers
// with an error.
const emptyDataBody = `{"positions":[],"summary":{"spot_exposure":0,"perp_exposure":0,"net_delta":0,"hedged":false,"total_funding_24h":0,"num_positions":0},"by_coin":[],"by_account":[],"funding":[],"last_updated":null}`

// handleData always answers 200 with the last published snapshot; before
// the first successful refresh that is the empty snapshot with a null
// last_updated.
func (h *Handlers) handleData(w http.ResponseWriter, r *http.Request) {
	snap := h.cache.Current()

	body, err := sonic.Marshal(snap)
	if err != nil {
		h.logger.Error().Err(err).Msg("snapshot encode failed")
		body = []byte(emptyDataBody)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !h.cache.Ready() {
		http.Error(w, "warming up", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}
