package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/models"
)

const planColumns = `id, name, type, description, price, duration_days, features, is_active, created_at, updated_at`

func scanPlan(row interface{ Scan(dest ...any) error }) (*models.Plan, error) {
	var (
		p           models.Plan
		description sql.NullString
		features    []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &description, &p.Price, &p.DurationDays,
		&features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Features = map[string]bool{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// CreatePlan inserts a new plan and returns the stored record.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(plan.Features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO subscription_plans (name, type, description, price, duration_days, features, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + planColumns
	row := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Type, plan.Description, plan.Price, plan.DurationDays, features, plan.IsActive)
	created, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetPlan returns a plan by id.
func (s *Storage) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	plan, err := scanPlan(s.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, apperr.NotFound("subscription plan not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// ListPlans returns all active plans, optionally narrowed by type. An empty
// typeFilter matches every type.
func (s *Storage) ListPlans(ctx context.Context, typeFilter string) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM subscription_plans
			  WHERE is_active = TRUE
			    AND ($1 = '' OR type = $1)
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, typeFilter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePlan applies only the supplied fields of upd to the plan and
// returns the updated record.
func (s *Storage) UpdatePlan(ctx context.Context, id int64, upd models.UpdatePlanRequest) (*models.Plan, error) {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var features []byte
	if upd.Features != nil {
		var err error
		features, err = json.Marshal(upd.Features)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	query := `UPDATE subscription_plans
			  SET name = COALESCE($1, name),
			      type = COALESCE($2, type),
			      description = COALESCE($3, description),
			      price = COALESCE($4, price),
			      duration_days = COALESCE($5, duration_days),
			      features = COALESCE($6, features),
			      is_active = COALESCE($7, is_active),
			      updated_at = now()
			  WHERE id = $8
			  RETURNING ` + planColumns
	row := s.DB.QueryRowContext(ctx, query,
		upd.Name, upd.Type, upd.Description, upd.Price, upd.DurationDays, features, upd.IsActive, id)
	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, apperr.NotFound("subscription plan not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// DeletePlan removes a plan permanently. The active-reference check and the
// delete run in one transaction so a concurrent subscribe cannot slip
// between them.
func (s *Storage) DeletePlan(ctx context.Context, id int64) error {
	const op = "storage.DeletePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var activeRefs int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1 AND status = $2`,
		id, models.StatusActive).Scan(&activeRefs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if activeRefs > 0 {
		return fmt.Errorf("%s: %w", op, apperr.Conflict("plan has active subscriptions"))
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound("subscription plan not found"))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
