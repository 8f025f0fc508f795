package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

var _ models.Repository[*models.HistoryEntry] = (*HistoryRepository)(nil)

const historyColumns = `id, sequence, track, artist, album, video_url, file_path, source, created_at, updated_at`

// HistoryRepository implements models.Repository[*models.HistoryEntry] for the download history.
//
// Rows are hard-deleted; the history is a log of files on disk, not an archive.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new [models.HistoryEntry] with a generated ID and sequence
func (r *HistoryRepository) Create(entry *models.HistoryEntry) error {
	return r.create(context.Background(), entry)
}

func (r *HistoryRepository) create(ctx context.Context, entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry.SetID(shared.GenerateID())
	entry.SetSequence(sequence)

	query := `INSERT INTO history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID(),
		entry.Sequence(),
		entry.Track(),
		entry.Artist(),
		entry.Album(),
		entry.VideoURL(),
		entry.FilePath(),
		string(entry.Source()),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID
func (r *HistoryRepository) Get(id string) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE id = ?`
	return scanHistory(r.db.QueryRow(query, id))
}

// FindByPath retrieves the most recent entry written to path
func (r *HistoryRepository) FindByPath(ctx context.Context, path string) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE file_path = ? ORDER BY sequence DESC LIMIT 1`
	return scanHistory(r.db.QueryRowContext(ctx, query, path))
}

// Update rewrites every mutable column of entry
func (r *HistoryRepository) Update(entry *models.HistoryEntry) error {
	return r.update(context.Background(), entry)
}

func (r *HistoryRepository) update(ctx context.Context, entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	query := `
		UPDATE history
		SET track = ?, artist = ?, album = ?, video_url = ?, file_path = ?, source = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.Track(),
		entry.Artist(),
		entry.Album(),
		entry.VideoURL(),
		entry.FilePath(),
		string(entry.Source()),
		now,
		entry.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update history entry: %w", err)
	}
	return expectRow(result, entry.ID())
}

// Delete removes an entry by ID
func (r *HistoryRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return expectRow(result, id)
}

// Clear removes every entry and returns how many were deleted. Sequences keep counting.
func (r *HistoryRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return result.RowsAffected()
}

// List retrieves entries newest first.
//
// Supported criteria: "artist" and "track" (case-insensitive substring) and "limit" (int).
func (r *HistoryRepository) List(criteria map[string]any) ([]*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE 1 = 1`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist LIKE ?"
		args = append(args, "%"+artist+"%")
	}

	if track, ok := criteria["track"].(string); ok && track != "" {
		query += " AND track LIKE ?"
		args = append(args, "%"+track+"%")
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Record stores a finished download. A file written to a path that is already in the
// history (an overwrite) replaces that entry's identity and keeps its sequence.
func (r *HistoryRepository) Record(ctx context.Context, song *models.ResolvedSong, path string) error {
	entry := models.NewHistoryEntry(0, *song, path)

	existing, err := r.FindByPath(ctx, path)
	switch {
	case errors.Is(err, ErrNotFound):
		return r.create(ctx, entry)
	case err != nil:
		return err
	}

	entry.SetID(existing.ID())
	entry.SetSequence(existing.Sequence())
	entry.SetCreatedAt(existing.CreatedAt())
	return r.update(ctx, entry)
}

type scanner interface {
	Scan(dest ...any) error
}

// scanHistory scans a [sql.Row] or the current row of [sql.Rows] into a [models.HistoryEntry]
func scanHistory(row scanner) (*models.HistoryEntry, error) {
	var (
		id, track, artist, album string
		videoURL, filePath       string
		source                   string
		sequence                 int
		createdAt, updatedAt     time.Time
	)

	err := row.Scan(&id, &sequence, &track, &artist, &album, &videoURL, &filePath, &source, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history entry %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	song := models.ResolvedSong{
		CatalogRecord: models.CatalogRecord{Track: track, Artist: artist, Album: album},
		VideoURL:      videoURL,
		Source:        models.Source(source),
	}

	entry := models.NewHistoryEntry(sequence, song, filePath)
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	return entry, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("history entry %s: %w", id, ErrNotFound)
	}
	return nil
}
