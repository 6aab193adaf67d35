package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikhilbhutani/audionotes/internal/models"
)

// Repository is the single-table surface the notes service needs.
type Repository interface {
	// Insert stores note and fills in the database-assigned ID.
	Insert(ctx context.Context, note *models.AudioNote) error
	// List returns every note, newest first.
	List(ctx context.Context) ([]models.AudioNote, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AudioNote, error)
	// AudioURL returns only the audio_url column of one note.
	AudioURL(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DB is the subset of *pgxpool.Pool used by PgRepository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) Insert(ctx context.Context, note *models.AudioNote) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO audio_notes (audio_url, transcription, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		note.AudioURL, note.Transcription, note.CreatedAt,
	).Scan(&note.ID)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context) ([]models.AudioNote, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, audio_url, transcription, created_at
		 FROM audio_notes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []models.AudioNote{}
	for rows.Next() {
		var n models.AudioNote
		if err := rows.Scan(&n.ID, &n.AudioURL, &n.Transcription, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*models.AudioNote, error) {
	var n models.AudioNote
	err := r.db.QueryRow(ctx,
		`SELECT id, audio_url, transcription, created_at FROM audio_notes WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.AudioURL, &n.Transcription, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

func (r *PgRepository) AudioURL(ctx context.Context, id uuid.UUID) (string, error) {
	var url string
	err := r.db.QueryRow(ctx, `SELECT audio_url FROM audio_notes WHERE id = $1`, id).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get note audio url: %w", err)
	}
	return url, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM audio_notes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
