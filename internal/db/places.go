package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/dvidal/tripweaver/internal/models"
)

const placeCols = `id, user_id, name, description, image, url, address, source, created_at`

func scanPlace(row pgx.Row) (*models.Place, error) {
	var p models.Place
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Image, &p.URL, &p.Address, &p.Source, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CreatePlace saves a place to the user's collection. embedding may be
// nil when no embedder is configured; such places simply never surface in
// semantic search.
func (s *Store) CreatePlace(ctx context.Context, place *models.Place, embedding []float32) error {
	var vec interface{}
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO places (user_id, name, description, image, url, address, source, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, place.UserID, place.Name, place.Description, place.Image, place.URL, place.Address, place.Source, vec).
		Scan(&place.ID, &place.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}
	return nil
}

func (s *Store) GetPlace(ctx context.Context, userID, placeID uuid.UUID) (*models.Place, error) {
	return scanPlace(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM places WHERE id = $1 AND user_id = $2", placeCols), placeID, userID))
}

func (s *Store) ListPlaces(ctx context.Context, userID uuid.UUID) ([]models.Place, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM places WHERE user_id = $1 ORDER BY created_at DESC", placeCols), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, *place)
	}
	return places, rows.Err()
}

// SearchPlaces ranks the user's saved places by cosine similarity to
// queryEmbedding, falling back to substring match on name and address for
// places without embeddings.
func (s *Store) SearchPlaces(ctx context.Context, userID uuid.UUID, query string, queryEmbedding []float32, limit int) ([]models.Place, error) {
	if limit <= 0 {
		limit = 20
	}

	if len(queryEmbedding) == 0 {
		rows, err := s.pool.Query(ctx, fmt.Sprintf(`
			SELECT %s FROM places
			WHERE user_id = $1 AND (name ILIKE '%%' || $2 || '%%' OR address ILIKE '%%' || $2 || '%%')
			ORDER BY created_at DESC
			LIMIT $3
		`, placeCols), userID, query, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return collectPlaces(rows)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM places
		WHERE user_id = $1
		ORDER BY
			CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC,
			COALESCE(1 - (embedding <=> $2), -1) DESC,
			created_at DESC
		LIMIT $3
	`, placeCols), userID, pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlaces(rows)
}

func collectPlaces(rows pgx.Rows) ([]models.Place, error) {
	var places []models.Place
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, *place)
	}
	return places, rows.Err()
}

func (s *Store) DeletePlace(ctx context.Context, userID, placeID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM places WHERE id = $1 AND user_id = $2", placeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
