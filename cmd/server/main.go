package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/services"
	"memphis-weekend-events/internal/storage"
)

// server is the standalone single-process mode: in-memory storage, a cron
// schedule for refreshes, and a small JSON API mirroring the Lambda surface.
type server struct {
	query *services.QueryService
}

func main() {
	cfg := config.Load()

	eventStore := storage.NewMemoryEventStore()
	weatherStore := storage.NewMemoryWeatherStore()
	runLogStore := storage.NewMemoryRunLogStore()

	fetcher := services.NewFallbackFetcher(
		services.NewFirecrawlClient(cfg.FirecrawlAPIKey),
		services.NewDirectFetcher(),
	)
	parser := services.NewEnrichingParser(fetcher)
	weather := services.NewOpenWeatherClient(cfg.OpenWeatherAPIKey, cfg.Latitude, cfg.Longitude)
	analyzer := services.NewEventAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITemperature, cfg.OpenAIMaxTokens)

	orchestrator := services.NewOrchestrator(
		fetcher, parser, weather, analyzer, nil,
		eventStore, weatherStore, runLogStore,
		cfg.SourceURL, cfg.Scoring,
	)

	query := services.NewQueryService(eventStore, weatherStore, runLogStore, cfg.Scoring,
		func(ctx context.Context) (*services.RunSummary, error) {
			return orchestrator.Run(ctx)
		})

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		if _, err := orchestrator.Run(ctx); err != nil {
			log.Printf("[CRON] scheduled refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid REFRESH_CRON %q: %v", cfg.RefreshCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	s := &server{query: query}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/events/search", s.handleSearch)
	mux.HandleFunc("/weather", s.handleWeather)
	mux.HandleFunc("/refresh", s.handleRefresh)
	mux.HandleFunc("/refresh/status", s.handleStatus)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Printf("[SERVER] listening on %s, refresh schedule %q", addr, cfg.RefreshCron)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[SERVER] response encoding failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func filterFromQuery(r *http.Request) *storage.EventFilter {
	q := r.URL.Query()
	filter := &storage.EventFilter{}
	if v := q.Get("day"); v != "" {
		filter.Days = strings.Split(v, ",")
	}
	if v := q.Get("cost"); v != "" {
		filter.CostLevels = strings.Split(v, ",")
	}
	if v := q.Get("category"); v != "" {
		filter.Categories = strings.Split(v, ",")
	}
	if v := q.Get("audience"); v != "" {
		filter.AudienceTypes = strings.Split(v, ",")
	}
	if v := q.Get("indoor"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IsIndoor = &b
		}
	}
	if v := q.Get("outdoor"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IsOutdoor = &b
		}
	}
	return filter
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	views, err := s.query.GetFilteredEvents(r.Context(), filterFromQuery(r), r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter q"})
		return
	}
	views, err := s.query.SearchEvents(r.Context(), text, filterFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) handleWeather(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.query.GetWeatherData(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}
	job, err := s.query.TriggerRefresh()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.query.GetRefreshStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
