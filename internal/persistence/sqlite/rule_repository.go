package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/campaign-availability/internal/persistence"
	"github.com/google/uuid"
)

// RuleRepository implements persistence.RuleRepository using SQLite
type RuleRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  RetryConfig
	now    func() time.Time
	newID  func() string
}

// NewRuleRepository creates a new SQLite rule repository
func NewRuleRepository(pool *ConnectionPool) *RuleRepository {
	return &RuleRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  DefaultRetryConfig(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ReplaceRules swaps the saved rules of a campaign in one transaction. Rules
// are stored in slice order; missing IDs are generated.
func (r *RuleRepository) ReplaceRules(ctx context.Context, campaignID string, rules []persistence.AvailabilityRule) error {
	if campaignID == "" {
		return persistence.ErrNotFound
	}
	for _, rule := range rules {
		if len(rule.Dates) == 0 || len(rule.Slots) == 0 || rule.Fingerprint == "" {
			return persistence.ErrConstraintViolation
		}
	}

	return WithRetry(ctx, r.retry, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM campaigns WHERE id = ?`, campaignID).Scan(&exists)
			if err != nil {
				return r.mapper.MapError(err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM availability_rules WHERE campaign_id = ?`, campaignID); err != nil {
				return r.mapper.MapError(err)
			}

			stmt, err := tx.PrepareContext(ctx, `
				INSERT INTO availability_rules (id, campaign_id, position, dates, slots, all_day, fingerprint, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`)
			if err != nil {
				return r.mapper.MapError(err)
			}
			defer stmt.Close()

			now := r.now().UTC()
			for i, rule := range rules {
				if err := r.insert(ctx, stmt, campaignID, i, rule, now); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *RuleRepository) insert(ctx context.Context, stmt *sql.Stmt, campaignID string, position int, rule persistence.AvailabilityRule, now time.Time) error {
	dates, err := json.Marshal(rule.Dates)
	if err != nil {
		return fmt.Errorf("failed to encode dates: %w", err)
	}
	slots, err := json.Marshal(rule.Slots)
	if err != nil {
		return fmt.Errorf("failed to encode slots: %w", err)
	}
	if rule.ID == "" {
		rule.ID = r.newID()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	_, err = stmt.ExecContext(ctx,
		rule.ID,
		campaignID,
		position,
		string(dates),
		string(slots),
		rule.AllDay,
		rule.Fingerprint,
		rule.CreatedAt.UTC().Format(timestampLayout),
	)
	return r.mapper.MapError(err)
}

// ListRules returns the saved rules of a campaign in position order. An
// unknown campaign yields an empty list.
func (r *RuleRepository) ListRules(ctx context.Context, campaignID string) ([]persistence.AvailabilityRule, error) {
	query := `
		SELECT id, campaign_id, position, dates, slots, all_day, fingerprint, created_at
		FROM availability_rules
		WHERE campaign_id = ?
		ORDER BY position ASC
	`
	rows, err := r.pool.DB().QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	rules := make([]persistence.AvailabilityRule, 0)
	for rows.Next() {
		var (
			rule         persistence.AvailabilityRule
			dates, slots string
			createdAt    string
		)
		if err := rows.Scan(&rule.ID, &rule.CampaignID, &rule.Position, &dates, &slots, &rule.AllDay, &rule.Fingerprint, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if err := json.Unmarshal([]byte(dates), &rule.Dates); err != nil {
			return nil, fmt.Errorf("failed to decode dates of rule %s: %w", rule.ID, err)
		}
		if err := json.Unmarshal([]byte(slots), &rule.Slots); err != nil {
			return nil, fmt.Errorf("failed to decode slots of rule %s: %w", rule.ID, err)
		}
		if rule.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rules, nil
}
