package http

import (
	"context"
	"net/http"
)

type RouterConfig struct {
	Campaigns  *CampaignHandler
	Sessions   *SessionHandler
	Health     func(ctx context.Context) error
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	withCampaign := func(next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := ContextWithCampaignID(r.Context(), r.PathValue("id"))
			next(w, r.WithContext(ctx))
		}
	}
	withSession := func(next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := ContextWithSessionID(r.Context(), r.PathValue("sid"))
			next(w, r.WithContext(ctx))
		}
	}

	if cfg.Campaigns != nil {
		mux.HandleFunc("POST /campaigns", cfg.Campaigns.Create)
		mux.HandleFunc("GET /campaigns", cfg.Campaigns.List)
		mux.HandleFunc("GET /campaigns/{id}", withCampaign(cfg.Campaigns.Get))
		mux.HandleFunc("DELETE /campaigns/{id}", withCampaign(cfg.Campaigns.Delete))
		mux.HandleFunc("GET /campaigns/{id}/availability.ics", withCampaign(cfg.Campaigns.Export))
	}

	if cfg.Sessions != nil {
		s := cfg.Sessions
		mux.HandleFunc("POST /campaigns/{id}/sessions", withCampaign(s.Open))
		mux.HandleFunc("GET /sessions/{sid}", withSession(s.Get))
		mux.HandleFunc("DELETE /sessions/{sid}", withSession(s.Close))
		mux.HandleFunc("POST /sessions/{sid}/days", withSession(s.ClickDay))
		mux.HandleFunc("POST /sessions/{sid}/select-all", withSession(s.SelectAll))
		mux.HandleFunc("POST /sessions/{sid}/clear", withSession(s.Clear))
		mux.HandleFunc("POST /sessions/{sid}/month", withSession(s.ShiftMonth))
		mux.HandleFunc("PUT /sessions/{sid}/options", withSession(s.SetOptions))
		mux.HandleFunc("POST /sessions/{sid}/slots/{slotID}", withSession(func(w http.ResponseWriter, r *http.Request) {
			s.ToggleSlot(w, r, r.PathValue("slotID"))
		}))
		mux.HandleFunc("POST /sessions/{sid}/rules", withSession(s.SaveRule))
		mux.HandleFunc("DELETE /sessions/{sid}/rules/{index}", withSession(func(w http.ResponseWriter, r *http.Request) {
			s.RemoveRule(w, r, r.PathValue("index"))
		}))
		mux.HandleFunc("POST /sessions/{sid}/submit", withSession(s.Submit))
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := cfg.Health(r.Context()); err != nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
