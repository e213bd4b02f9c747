package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvidal/tripweaver/internal/models"
)

// ErrNotFound wraps pgx.ErrNoRows for callers that should not import pgx.
var ErrNotFound = errors.New("not found")

// Invite lifetimes. Email invites are short-lived; shareable links last a
// month.
const (
	EmailInviteTTL = 7 * 24 * time.Hour
	LinkInviteTTL  = 30 * 24 * time.Hour
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, user.Email, user.Name, user.AvatarURL, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userCols = `u.id, u.email, u.name, u.avatar_url, u.password_hash, u.created_at,
	(SELECT COUNT(*) FROM trip_members tm WHERE tm.user_id = u.id)`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.PasswordHash, &u.CreatedAt, &u.TotalTrips)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users u WHERE u.email = $1", userCols), email))
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users u WHERE u.id = $1", userCols), id))
}

// --- trips ---

// CreateTrip inserts the trip and enrolls the creator as OWNER in one
// transaction.
func (s *Store) CreateTrip(ctx context.Context, trip *models.Trip) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO trips (name, destination, start_date, end_date, currency, cover_image, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, trip.Name, trip.Destination, trip.StartDate, trip.EndDate, trip.Currency, trip.CoverImage, trip.CreatedBy).
		Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO trip_members (trip_id, user_id, role) VALUES ($1, $2, $3)
	`, trip.ID, trip.CreatedBy, models.RoleOwner); err != nil {
		return fmt.Errorf("failed to enroll trip owner: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO budgets (trip_id, total_budget, currency) VALUES ($1, 0, $2)
	`, trip.ID, trip.Currency); err != nil {
		return fmt.Errorf("failed to create trip budget: %w", err)
	}

	return tx.Commit(ctx)
}

const tripCols = `t.id, t.name, t.destination, t.start_date, t.end_date, t.currency, t.cover_image,
	t.created_by, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM events e WHERE e.trip_id = t.id),
	(SELECT COUNT(*) FROM documents d WHERE d.trip_id = t.id)`

func scanTrip(row pgx.Row) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(&t.ID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate, &t.Currency, &t.CoverImage,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.EventCount, &t.DocumentCount)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) GetTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	trip, err := scanTrip(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM trips t WHERE t.id = $1", tripCols), id))
	if err != nil {
		return nil, err
	}

	members, err := s.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	trip.Members = members
	return trip, nil
}

func (s *Store) ListTripsForUser(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM trips t
		JOIN trip_members tm ON tm.trip_id = t.id
		WHERE tm.user_id = $1
		ORDER BY t.start_date DESC
	`, tripCols), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	return trips, rows.Err()
}

func (s *Store) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trips
		SET name = $2, destination = $3, start_date = $4, end_date = $5,
			currency = $6, cover_image = $7, updated_at = NOW()
		WHERE id = $1
	`, trip.ID, trip.Name, trip.Destination, trip.StartDate, trip.EndDate, trip.Currency, trip.CoverImage)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM trips WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- members ---

func (s *Store) ListMembers(ctx context.Context, tripID uuid.UUID) ([]models.TripMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tm.id, tm.trip_id, tm.user_id, tm.role, u.name, u.email, tm.joined_at
		FROM trip_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.trip_id = $1
		ORDER BY tm.joined_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.TripMember
	for rows.Next() {
		var m models.TripMember
		if err := rows.Scan(&m.ID, &m.TripID, &m.UserID, &m.Role, &m.Name, &m.Email, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMemberRole returns ErrNotFound when userID is not on the trip, which
// doubles as the access check everywhere.
func (s *Store) GetMemberRole(ctx context.Context, tripID, userID uuid.UUID) (models.Role, error) {
	var role models.Role
	err := s.pool.QueryRow(ctx, `
		SELECT role FROM trip_members WHERE trip_id = $1 AND user_id = $2
	`, tripID, userID).Scan(&role)
	if err != nil {
		return "", notFound(err)
	}
	return role, nil
}

func (s *Store) AddMember(ctx context.Context, tripID, userID uuid.UUID, role models.Role) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, tripID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (s *Store) UpdateMemberRole(ctx context.Context, tripID, userID uuid.UUID, role models.Role) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trip_members SET role = $3 WHERE trip_id = $1 AND user_id = $2
	`, tripID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, tripID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM trip_members WHERE trip_id = $1 AND user_id = $2
	`, tripID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- invites ---

// CreateInvite issues a new invite token. Re-inviting an email address
// supersedes any invite still pending for it on the same trip.
func (s *Store) CreateInvite(ctx context.Context, invite *models.TripInvite) error {
	ttl := LinkInviteTTL
	if invite.Email != "" {
		ttl = EmailInviteTTL
		if _, err := s.pool.Exec(ctx, `
			UPDATE trip_invites SET status = 'CANCELLED'
			WHERE trip_id = $1 AND email = $2 AND status = 'PENDING'
		`, invite.TripID, invite.Email); err != nil {
			return fmt.Errorf("failed to supersede pending invite: %w", err)
		}
	}
	invite.Status = "PENDING"
	err := s.pool.QueryRow(ctx, `
		INSERT INTO trip_invites (trip_id, email, role, status, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, NOW() + $6)
		RETURNING token, expires_at, created_at
	`, invite.TripID, invite.Email, invite.Role, invite.Status, invite.InvitedBy, ttl).
		Scan(&invite.Token, &invite.ExpiresAt, &invite.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (s *Store) GetInvite(ctx context.Context, token uuid.UUID) (*models.TripInvite, error) {
	var inv models.TripInvite
	err := s.pool.QueryRow(ctx, `
		SELECT token, trip_id, email, role, status, invited_by, expires_at, created_at
		FROM trip_invites WHERE token = $1
	`, token).Scan(&inv.Token, &inv.TripID, &inv.Email, &inv.Role, &inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *Store) ListInvites(ctx context.Context, tripID uuid.UUID) ([]models.TripInvite, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token, trip_id, email, role, status, invited_by, expires_at, created_at
		FROM trip_invites WHERE trip_id = $1
		ORDER BY created_at DESC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.TripInvite
	for rows.Next() {
		var inv models.TripInvite
		if err := rows.Scan(&inv.Token, &inv.TripID, &inv.Email, &inv.Role, &inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// AcceptInvite marks the invite accepted and enrolls userID with the
// invite's role in one transaction. Expired or non-pending invites are
// rejected.
func (s *Store) AcceptInvite(ctx context.Context, token, userID uuid.UUID) (*models.TripInvite, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var inv models.TripInvite
	err = tx.QueryRow(ctx, `
		SELECT token, trip_id, email, role, status, invited_by, expires_at, created_at
		FROM trip_invites WHERE token = $1
		FOR UPDATE
	`, token).Scan(&inv.Token, &inv.TripID, &inv.Email, &inv.Role, &inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if inv.Status != "PENDING" {
		return nil, fmt.Errorf("invite is %s", inv.Status)
	}
	if time.Now().After(inv.ExpiresAt) {
		if _, err := tx.Exec(ctx, "UPDATE trip_invites SET status = 'EXPIRED' WHERE token = $1", token); err == nil {
			_ = tx.Commit(ctx)
		}
		return nil, fmt.Errorf("invite has expired")
	}

	// Email invites are single-use and bound to the invited address;
	// link invites stay PENDING so the link keeps working until it
	// expires.
	if inv.Email != "" {
		var email string
		if err := tx.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email); err != nil {
			return nil, notFound(err)
		}
		if !strings.EqualFold(email, inv.Email) {
			return nil, fmt.Errorf("invite was issued for a different email address")
		}
		if _, err := tx.Exec(ctx, "UPDATE trip_invites SET status = 'ACCEPTED' WHERE token = $1", token); err != nil {
			return nil, fmt.Errorf("failed to accept invite: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, inv.TripID, userID, inv.Role); err != nil {
		return nil, fmt.Errorf("failed to enroll member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &inv, nil
}

// CancelInvite revokes a pending invite. The token is matched within the
// given trip only, so a manager of one trip cannot revoke another trip's
// invites.
func (s *Store) CancelInvite(ctx context.Context, tripID, token uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trip_invites SET status = 'CANCELLED'
		WHERE token = $1 AND trip_id = $2 AND status = 'PENDING'
	`, token, tripID)
	if err != nil {
		return fmt.Errorf("failed to cancel invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- documents ---

func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO documents (trip_id, name, url, type, file_size, mime_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, doc.TripID, doc.Name, doc.URL, doc.Type, doc.FileSize, doc.MimeType, doc.UploadedBy).
		Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, tripID uuid.UUID) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.trip_id, d.name, d.url, d.type, d.file_size, d.mime_type, d.uploaded_by, u.name, d.created_at
		FROM documents d
		JOIN users u ON u.id = d.uploaded_by
		WHERE d.trip_id = $1
		ORDER BY d.created_at DESC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.TripID, &d.Name, &d.URL, &d.Type, &d.FileSize, &d.MimeType, &d.UploadedBy, &d.UploaderName, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, tripID, docID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM documents WHERE id = $1 AND trip_id = $2
	`, docID, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
