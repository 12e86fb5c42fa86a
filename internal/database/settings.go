package database

import (
	"context"

	"github.com/google/uuid"
)

func (q *Queries) GetTenantSettings(ctx context.Context, tenantID uuid.UUID) (TenantSettings, error) {
	row := q.db.QueryRow(ctx, `
		SELECT tenant_id, currency_code, updated_at
		FROM tenant_settings
		WHERE tenant_id = $1`, tenantID)
	var s TenantSettings
	err := row.Scan(&s.TenantID, &s.CurrencyCode, &s.UpdatedAt)
	return s, err
}

type UpsertTenantSettingsParams struct {
	TenantID     uuid.UUID
	CurrencyCode string
}

func (q *Queries) UpsertTenantSettings(ctx context.Context, arg UpsertTenantSettingsParams) (TenantSettings, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tenant_settings (tenant_id, currency_code)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id)
		DO UPDATE SET currency_code = EXCLUDED.currency_code, updated_at = now()
		RETURNING tenant_id, currency_code, updated_at`,
		arg.TenantID, arg.CurrencyCode)
	var s TenantSettings
	err := row.Scan(&s.TenantID, &s.CurrencyCode, &s.UpdatedAt)
	return s, err
}

const throttleRuleColumns = `tenant_id, day_of_week, enabled, interval_minutes, max_orders_per_interval`

func (q *Queries) ListThrottleRules(ctx context.Context, tenantID uuid.UUID) ([]ThrottleRule, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+throttleRuleColumns+`
		FROM throttle_rules
		WHERE tenant_id = $1
		ORDER BY day_of_week`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []ThrottleRule
	for rows.Next() {
		var r ThrottleRule
		if err := rows.Scan(&r.TenantID, &r.DayOfWeek, &r.Enabled, &r.IntervalMinutes, &r.MaxOrdersPerInterval); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

type UpsertThrottleRuleParams struct {
	TenantID             uuid.UUID
	DayOfWeek            int32
	Enabled              bool
	IntervalMinutes      int32
	MaxOrdersPerInterval int32
}

func (q *Queries) UpsertThrottleRule(ctx context.Context, arg UpsertThrottleRuleParams) (ThrottleRule, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO throttle_rules (tenant_id, day_of_week, enabled, interval_minutes, max_orders_per_interval)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, day_of_week)
		DO UPDATE SET enabled = EXCLUDED.enabled,
		              interval_minutes = EXCLUDED.interval_minutes,
		              max_orders_per_interval = EXCLUDED.max_orders_per_interval
		RETURNING `+throttleRuleColumns,
		arg.TenantID, arg.DayOfWeek, arg.Enabled, arg.IntervalMinutes, arg.MaxOrdersPerInterval)
	var r ThrottleRule
	err := row.Scan(&r.TenantID, &r.DayOfWeek, &r.Enabled, &r.IntervalMinutes, &r.MaxOrdersPerInterval)
	return r, err
}
