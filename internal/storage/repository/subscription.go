package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"subscription-manager/internal/lib/apperr"
	"subscription-manager/internal/models"
)

const subscriptionColumns = `id, user_id, plan_id, start_date, end_date, status, auto_renew, created_at, updated_at`

func scanSubscription(row interface{ Scan(dest ...any) error }) (*models.Subscription, error) {
	var s models.Subscription
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.StartDate, &s.EndDate,
		&s.Status, &s.AutoRenew, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubscription inserts a new subscription record and returns it. The
// partial unique index on (user_id, plan_id) for active rows makes the
// insert itself the atomic check-and-create: a concurrent duplicate
// surfaces as a conflict, not a second active record.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, status, auto_renew)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.PlanID, sub.StartDate, sub.EndDate, sub.Status, sub.AutoRenew)
	created, err := scanSubscription(row)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", op, apperr.Conflict("you already have an active subscription to this plan"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// CancelSubscription marks the caller's own active subscription cancelled
// and switches auto-renew off. A missing id and an id owned by another user
// both come back as not found.
func (s *Storage) CancelSubscription(ctx context.Context, userID, subscriptionID int64) (*models.Subscription, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1, auto_renew = FALSE, updated_at = now()
			  WHERE id = $2 AND user_id = $3 AND status = $4
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		models.StatusCancelled, subscriptionID, userID, models.StatusActive)
	cancelled, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, apperr.NotFound("no active subscription found"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cancelled, nil
}

// UpgradeSubscription retires the old record and inserts the new one as a
// single transaction: either both mutations apply or neither does, so the
// user can never be left without an active subscription mid-upgrade.
func (s *Storage) UpgradeSubscription(ctx context.Context, userID, oldID int64, newSub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpgradeSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE subscriptions
		 SET status = $1, auto_renew = FALSE, updated_at = now()
		 WHERE id = $2 AND user_id = $3 AND status = $4`,
		models.StatusUpgraded, oldID, userID, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", op, apperr.NotFound("active subscription not found"))
	}

	row := tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, status, auto_renew)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+subscriptionColumns,
		newSub.UserID, newSub.PlanID, newSub.StartDate, newSub.EndDate, newSub.Status, newSub.AutoRenew)
	created, err := scanSubscription(row)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", op, apperr.Conflict("you already have an active subscription to this plan"))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ListActiveSubscriptions returns the user's active, non-expired
// subscriptions joined with plan name and price, newest first.
func (s *Storage) ListActiveSubscriptions(ctx context.Context, userID int64, now time.Time) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ListActiveSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, p.name, p.price, s.start_date, s.end_date, s.status, s.auto_renew
			  FROM subscriptions s
			  JOIN subscription_plans p ON s.plan_id = p.id
			  WHERE s.user_id = $1
			    AND s.status = $2
			    AND s.end_date > $3
			  ORDER BY s.start_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID, models.StatusActive, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionInfo
	for rows.Next() {
		var si models.SubscriptionInfo
		if err := rows.Scan(&si.ID, &si.PlanName, &si.PlanPrice, &si.StartDate,
			&si.EndDate, &si.Status, &si.AutoRenew); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListHistory returns one page of the user's subscriptions in any status,
// newest first.
func (s *Storage) ListHistory(ctx context.Context, userID int64, limit, offset int) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ListHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, p.name, p.price, s.start_date, s.end_date, s.status, s.auto_renew
			  FROM subscriptions s
			  JOIN subscription_plans p ON s.plan_id = p.id
			  WHERE s.user_id = $1
			  ORDER BY s.start_date DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionInfo
	for rows.Next() {
		var si models.SubscriptionInfo
		if err := rows.Scan(&si.ID, &si.PlanName, &si.PlanPrice, &si.StartDate,
			&si.EndDate, &si.Status, &si.AutoRenew); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountSubscriptions returns the user's total number of subscription
// records across all statuses.
func (s *Storage) CountSubscriptions(ctx context.Context, userID int64) (int, error) {
	const op = "storage.CountSubscriptions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
