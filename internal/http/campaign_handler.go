package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campaign-availability/internal/application"
	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/ics"
)

type campaignService interface {
	CreateCampaign(ctx context.Context, input application.CampaignInput) (application.Campaign, error)
	GetCampaign(ctx context.Context, id string) (application.Campaign, error)
	ListCampaigns(ctx context.Context) ([]application.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
	SavedRules(ctx context.Context, id string) (application.Campaign, []availability.Rule, error)
}

type CampaignHandler struct {
	service   campaignService
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewCampaignHandler wires campaign endpoints. The location places timed
// slots in the iCalendar export.
func NewCampaignHandler(service campaignService, location *time.Location, now func() time.Time, logger *slog.Logger) *CampaignHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &CampaignHandler{service: service, location: location, now: now, responder: newResponder(base), logger: base}
}

func (h *CampaignHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CampaignHandler", operation, attrs...)
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode campaign request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	campaign, err := h.service.CreateCampaign(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "campaign creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("campaign_id", campaign.ID).InfoContext(r.Context(), "campaign created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, campaignResponse{Campaign: toCampaignDTO(campaign)})
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaigns, err := h.service.ListCampaigns(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "campaign listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]campaignDTO, 0, len(campaigns))
	for _, campaign := range campaigns {
		dtos = append(dtos, toCampaignDTO(campaign))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campaignListResponse{Campaigns: dtos})
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaignID, ok := h.campaignID(w, r, "Get")
	if !ok {
		return
	}

	campaign, rules, err := h.service.SavedRules(r.Context(), campaignID)
	if err != nil {
		h.log(r.Context(), "Get", "campaign_id", campaignID).ErrorContext(r.Context(), "campaign lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dto := toCampaignDTO(campaign)
	dto.Rules = make([]ruleDTO, 0, len(rules))
	for _, rule := range rules {
		dto.Rules = append(dto.Rules, ruleDTO{Summary: rule.Describe(), Rule: rule})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campaignResponse{Campaign: dto})
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaignID, ok := h.campaignID(w, r, "Delete")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Delete", "campaign_id", campaignID)
	if err := h.service.DeleteCampaign(r.Context(), campaignID); err != nil {
		logger.ErrorContext(r.Context(), "campaign deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "campaign deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Export serves the submitted rules as text/calendar.
func (h *CampaignHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaignID, ok := h.campaignID(w, r, "Export")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Export", "campaign_id", campaignID)
	campaign, rules, err := h.service.SavedRules(r.Context(), campaignID)
	if err != nil {
		logger.ErrorContext(r.Context(), "campaign lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	err = ics.Write(&buf, ics.Feed{
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		Rules:        rules,
		Location:     h.location,
		Stamp:        h.now(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "calendar exported", "rule_count", len(rules))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="availability.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *CampaignHandler) campaignID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	campaignID, ok := CampaignIDFromContext(r.Context())
	if !ok || strings.TrimSpace(campaignID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing campaign id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCampaignID)
		return "", false
	}
	return campaignID, true
}

type campaignRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (r campaignRequest) toInput() application.CampaignInput {
	return application.CampaignInput{
		Name:      r.Name,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}
}

type campaignDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate string    `json:"startDate,omitempty"`
	EndDate   string    `json:"endDate,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Rules     []ruleDTO `json:"rules,omitempty"`
}

type ruleDTO struct {
	Summary string            `json:"summary"`
	Rule    availability.Rule `json:"rule"`
}

type campaignResponse struct {
	Campaign campaignDTO `json:"campaign"`
}

type campaignListResponse struct {
	Campaigns []campaignDTO `json:"campaigns"`
}

func toCampaignDTO(campaign application.Campaign) campaignDTO {
	dto := campaignDTO{
		ID:        campaign.ID,
		Name:      campaign.Name,
		CreatedAt: campaign.CreatedAt,
		UpdatedAt: campaign.UpdatedAt,
	}
	if !campaign.Bounds.IsZero() {
		dto.StartDate = campaign.Bounds.Start.String()
		dto.EndDate = campaign.Bounds.End.String()
	}
	return dto
}
