package ui

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

const sessionName = "brandpulse"

// Preferences are the dashboard settings kept in the visitor's session.
type Preferences struct {
	Dashboard   string `json:"dashboard"`
	VoiceSource string `json:"voice_source"`
}

func defaultPreferences() Preferences {
	return Preferences{Dashboard: "executive", VoiceSource: string(core.SourceReddit)}
}

func validDashboard(name string) bool {
	switch name {
	case "executive", "voice":
		return true
	}
	return false
}

func validSource(name string) bool {
	switch core.Source(name) {
	case core.SourceReddit, core.SourceYouTube:
		return true
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := s.store.KPIs(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"kpis": kpis})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.Channels(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"channels": channels})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.Sources(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.store.Campaigns(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	points, err := s.store.TimeSeries(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"timeseries": points})
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("source")
	if name == "" {
		name = string(core.SourceReddit)
	}
	if !validSource(name) {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("unknown source %q, expected reddit or youtube", name))
		return
	}
	source := core.Source(name)

	summary, err := s.store.Summary(r.Context(), source)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	records, err := s.store.Voice(r.Context(), source)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"source":  source,
		"summary": summary,
		"records": records,
	})
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)

	prefs := defaultPreferences()
	if v, ok := session.Values["dashboard"].(string); ok && v != "" {
		prefs.Dashboard = v
	}
	if v, ok := session.Values["voice_source"].(string); ok && v != "" {
		prefs.VoiceSource = v
	}

	s.respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var prefs Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid preferences payload: %w", err))
		return
	}
	if prefs.Dashboard != "" && !validDashboard(prefs.Dashboard) {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("unknown dashboard %q, expected executive or voice", prefs.Dashboard))
		return
	}
	if prefs.VoiceSource != "" && !validSource(prefs.VoiceSource) {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("unknown source %q, expected reddit or youtube", prefs.VoiceSource))
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	if prefs.Dashboard != "" {
		session.Values["dashboard"] = prefs.Dashboard
	}
	if prefs.VoiceSource != "" {
		session.Values["voice_source"] = prefs.VoiceSource
	}
	if err := session.Save(r, w); err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Errorf("save preferences: %w", err))
		return
	}

	s.handleGetPrefs(w, r)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}
