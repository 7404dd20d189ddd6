package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/config"
	"github.com/example/campaign-availability/internal/persistence"
	"github.com/example/campaign-availability/internal/persistence/sqlite"
	"github.com/example/campaign-availability/internal/persistence/sqlite/migration"
)

func newTestApp(t *testing.T) (*app, *sqlite.Storage) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	storage, err := sqlite.Open(ctx, migration.TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "availability.db")), logger)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	now := func() time.Time { return time.Date(2024, time.February, 20, 10, 0, 0, 0, time.UTC) }
	a, err := newApp(config.Default(), storage, now, logger)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	return a, storage
}

func call(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func TestAppRoundTrip(t *testing.T) {
	a, storage := newTestApp(t)

	rec := call(t, a.handler, http.MethodPost, "/campaigns", `{"name":"Spring","startDate":"2024-03-01","endDate":"2024-03-31"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create campaign: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Campaign struct {
			ID string `json:"id"`
		} `json:"campaign"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.Campaign.ID == "" {
		t.Fatalf("unexpected campaign body %s (%v)", rec.Body.String(), err)
	}
	campaignID := created.Campaign.ID

	rec = call(t, a.handler, http.MethodPost, "/campaigns/"+campaignID+"/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("open session: %d %s", rec.Code, rec.Body.String())
	}
	var opened struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	base := "/sessions/" + opened.Session.ID

	steps := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, base + "/days", `{"date":"2024-03-11"}`},
		{http.MethodPut, base + "/options", `{"allDay":true}`},
		{http.MethodPost, base + "/rules", ""},
		{http.MethodPost, base + "/days", `{"date":"2024-03-12"}`},
		{http.MethodPut, base + "/options", `{"allDay":false,"intervalsEnabled":false}`},
		{http.MethodPost, base + "/rules", ""},
		{http.MethodPost, base + "/submit", ""},
	}
	for _, step := range steps {
		rec := call(t, a.handler, step.method, step.path, step.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: %d %s", step.method, step.path, rec.Code, rec.Body.String())
		}
	}

	stored, err := storage.Rules().ListRules(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(stored) != 2 || !stored[0].AllDay || stored[1].AllDay {
		t.Fatalf("unexpected stored rules %+v", stored)
	}
	if stored[1].Slots[0].StartTime != "09:00" || stored[1].Slots[0].EndTime != "17:00" {
		t.Fatalf("expected the full default window, got %+v", stored[1].Slots)
	}

	rec = call(t, a.handler, http.MethodPost, "/campaigns/"+campaignID+"/sessions", "")
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "11 Mar 2024 (All Day)") {
		t.Fatalf("a new session must load the submitted rules: %s", rec.Body.String())
	}

	rec = call(t, a.handler, http.MethodGet, "/campaigns/"+campaignID+"/availability.ics", "")
	if rec.Code != http.StatusOK || strings.Count(rec.Body.String(), "BEGIN:VEVENT") != 2 {
		t.Fatalf("unexpected export %d %s", rec.Code, rec.Body.String())
	}

	if rec := call(t, a.handler, http.MethodGet, "/healthz", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("health check failed: %d", rec.Code)
	}

	if a.builder.SessionCount() != 2 {
		t.Fatalf("expected two open sessions, got %d", a.builder.SessionCount())
	}
}

func TestRuleConversion(t *testing.T) {
	rule := availability.Rule{
		Dates: []string{"2024-03-05", "2024-03-06"},
		Slots: []availability.SlotSpec{{StartTime: "09:00", EndTime: "10:00", Label: "9:00 AM - 10:00 AM"}},
	}

	model := toPersistenceRule("camp", 3, rule)
	if model.CampaignID != "camp" || model.Position != 3 || model.Fingerprint != rule.Fingerprint() {
		t.Fatalf("unexpected model %+v", model)
	}

	back := toApplicationRule(model)
	if !back.Equal(rule) {
		t.Fatalf("conversion lost data: %+v", back)
	}
}

func TestCampaignConversion(t *testing.T) {
	t.Run("open campaign", func(t *testing.T) {
		campaign, err := toApplicationCampaign(persistence.Campaign{ID: "c", Name: "Open"})
		if err != nil || !campaign.Bounds.IsZero() {
			t.Fatalf("expected zero bounds, got %+v (%v)", campaign.Bounds, err)
		}
		if model := toPersistenceCampaign(campaign); model.StartDate != "" || model.EndDate != "" {
			t.Fatalf("expected empty window, got %+v", model)
		}
	})

	t.Run("bounded campaign", func(t *testing.T) {
		campaign, err := toApplicationCampaign(persistence.Campaign{ID: "c", Name: "Spring", StartDate: "2024-03-01", EndDate: "2024-03-31"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := calendar.Bounds{Start: calendar.MustParseDay("2024-03-01"), End: calendar.MustParseDay("2024-03-31")}
		if campaign.Bounds != want {
			t.Fatalf("unexpected bounds %+v", campaign.Bounds)
		}
	})

	t.Run("corrupt window", func(t *testing.T) {
		if _, err := toApplicationCampaign(persistence.Campaign{ID: "c", StartDate: "2024-03-31", EndDate: "2024-03-01"}); err == nil {
			t.Fatal("expected an error for a reversed window")
		}
	})
}
