package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dvidal/tripweaver/internal/models"
)

const eventCols = `id, trip_id, title, type, start_time, end_time, location, lat, lng,
	cost, currency, category, paid_by, description, url, cover_image,
	created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var paidBy uuid.NullUUID
	err := row.Scan(&e.ID, &e.TripID, &e.Title, &e.Type, &e.StartTime, &e.EndTime, &e.Location, &e.Lat, &e.Lng,
		&e.Cost, &e.Currency, &e.Category, &paidBy, &e.Description, &e.URL, &e.CoverImage,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if paidBy.Valid {
		e.PaidBy = paidBy.UUID
	}
	return &e, nil
}

func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO events (trip_id, title, type, start_time, end_time, location, lat, lng,
			cost, currency, category, paid_by, description, url, cover_image, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`, event.TripID, event.Title, event.Type, event.StartTime, event.EndTime, event.Location, event.Lat, event.Lng,
		event.Cost, event.Currency, event.Category, nullableUUID(event.PaidBy), event.Description, event.URL,
		event.CoverImage, event.CreatedBy).
		Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, tripID, eventID uuid.UUID) (*models.Event, error) {
	return scanEvent(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM events WHERE id = $1 AND trip_id = $2", eventCols), eventID, tripID))
}

// ListEvents returns tripID's events in itinerary order.
func (s *Store) ListEvents(ctx context.Context, tripID uuid.UUID) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM events WHERE trip_id = $1 ORDER BY start_time", eventCols), tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (s *Store) UpdateEvent(ctx context.Context, event *models.Event) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events
		SET title = $3, type = $4, start_time = $5, end_time = $6, location = $7,
			lat = $8, lng = $9, cost = $10, currency = $11, category = $12,
			paid_by = $13, description = $14, url = $15, cover_image = $16, updated_at = NOW()
		WHERE id = $1 AND trip_id = $2
	`, event.ID, event.TripID, event.Title, event.Type, event.StartTime, event.EndTime, event.Location,
		event.Lat, event.Lng, event.Cost, event.Currency, event.Category,
		nullableUUID(event.PaidBy), event.Description, event.URL, event.CoverImage)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, tripID, eventID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM events WHERE id = $1 AND trip_id = $2", eventID, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- budget ---

func (s *Store) SetBudget(ctx context.Context, budget *models.Budget) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO budgets (trip_id, total_budget, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (trip_id) DO UPDATE SET total_budget = $2, currency = $3
	`, budget.TripID, budget.TotalBudget, budget.Currency)
	if err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, tripID uuid.UUID) (*models.Budget, error) {
	var b models.Budget
	err := s.pool.QueryRow(ctx, `
		SELECT trip_id, total_budget, currency FROM budgets WHERE trip_id = $1
	`, tripID).Scan(&b.TripID, &b.TotalBudget, &b.Currency)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// GetBudgetSummary aggregates spending over the trip's costed events.
// Expenses are events; there is no separate expense table.
func (s *Store) GetBudgetSummary(ctx context.Context, tripID uuid.UUID) (*models.BudgetSummary, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM events WHERE trip_id = $1 AND cost > 0 ORDER BY start_time", eventCols), tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &models.BudgetSummary{ByCategory: make(map[string]float64)}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		summary.Expenses = append(summary.Expenses, *event)
		summary.TotalSpent += event.Cost

		category := event.Category
		if category == "" {
			category = string(event.Type)
		}
		summary.ByCategory[category] += event.Cost
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	budget, err := s.GetBudget(ctx, tripID)
	switch {
	case err == nil:
		summary.Limit = budget.TotalBudget
		summary.Currency = budget.Currency
	case errors.Is(err, ErrNotFound):
		// No budget set yet; summary still reports spending.
	default:
		return nil, err
	}
	return summary, nil
}
