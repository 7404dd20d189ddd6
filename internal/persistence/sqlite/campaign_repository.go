package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campaign-availability/internal/persistence"
)

// timestampLayout is fixed width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CampaignRepository implements persistence.CampaignRepository using SQLite
type CampaignRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	now    func() time.Time
}

// NewCampaignRepository creates a new SQLite campaign repository
func NewCampaignRepository(pool *ConnectionPool) *CampaignRepository {
	return &CampaignRepository{pool: pool, mapper: NewErrorMapper(), now: time.Now}
}

// CreateCampaign inserts a new campaign. Zero timestamps are filled with the
// current time.
func (r *CampaignRepository) CreateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	if campaign.ID == "" || strings.TrimSpace(campaign.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = r.now().UTC()
	}
	if campaign.UpdatedAt.IsZero() {
		campaign.UpdatedAt = campaign.CreatedAt
	}

	query := `
		INSERT INTO campaigns (id, name, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		campaign.ID,
		campaign.Name,
		nullableString(campaign.StartDate),
		nullableString(campaign.EndDate),
		campaign.CreatedAt.UTC().Format(timestampLayout),
		campaign.UpdatedAt.UTC().Format(timestampLayout),
	)
	return r.mapper.MapError(err)
}

// GetCampaign retrieves a campaign by ID.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id string) (persistence.Campaign, error) {
	if id == "" {
		return persistence.Campaign{}, persistence.ErrNotFound
	}
	query := `
		SELECT id, name, start_date, end_date, created_at, updated_at
		FROM campaigns
		WHERE id = ?
	`
	campaign, err := scanCampaign(r.pool.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Campaign{}, r.mapper.MapError(err)
	}
	return campaign, nil
}

// ListCampaigns returns every campaign, oldest first.
func (r *CampaignRepository) ListCampaigns(ctx context.Context) ([]persistence.Campaign, error) {
	query := `
		SELECT id, name, start_date, end_date, created_at, updated_at
		FROM campaigns
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	campaigns := make([]persistence.Campaign, 0)
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return campaigns, nil
}

// DeleteCampaign removes a campaign and, through the foreign key cascade,
// its rules.
func (r *CampaignRepository) DeleteCampaign(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (persistence.Campaign, error) {
	var (
		campaign             persistence.Campaign
		startDate, endDate   sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&campaign.ID, &campaign.Name, &startDate, &endDate, &createdAt, &updatedAt); err != nil {
		return persistence.Campaign{}, err
	}
	campaign.StartDate = startDate.String
	campaign.EndDate = endDate.String

	var err error
	if campaign.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return persistence.Campaign{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if campaign.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return persistence.Campaign{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return campaign, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
