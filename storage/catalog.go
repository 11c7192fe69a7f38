package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"critiverse/models"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")

const catalogColumns = `id, title, kind, year, genre, description, image_url, average_score, platforms, ongoing, created_at, updated_at`

// InsertContent stores a new catalog item and returns it with the assigned ID
// and timestamps.
func (s *Store) InsertContent(item models.CatalogItem) (models.CatalogItem, error) {
	platforms, err := encodePlatforms(item.Platforms)
	if err != nil {
		return models.CatalogItem{}, err
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO contents (title, kind, year, genre, description, image_url, average_score, platforms, ongoing, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Title, string(item.Kind), item.Year, item.Genre, item.Description,
		item.ImageURL, item.AverageScore, platforms, item.Ongoing, now, now,
	)
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("insert content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("insert content: %w", err)
	}
	return s.GetContent(id)
}

// UpdateContent overwrites the stored fields of an existing item.
func (s *Store) UpdateContent(item models.CatalogItem) (models.CatalogItem, error) {
	platforms, err := encodePlatforms(item.Platforms)
	if err != nil {
		return models.CatalogItem{}, err
	}

	res, err := s.db.Exec(`
		UPDATE contents
		SET title = ?, kind = ?, year = ?, genre = ?, description = ?, image_url = ?, average_score = ?, platforms = ?, ongoing = ?, updated_at = ?
		WHERE id = ?`,
		item.Title, string(item.Kind), item.Year, item.Genre, item.Description,
		item.ImageURL, item.AverageScore, platforms, item.Ongoing, time.Now().UTC(),
		item.ID,
	)
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("update content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.CatalogItem{}, ErrNotFound
	}
	return s.GetContent(item.ID)
}

// DeleteContent removes an item; reviews and favorites cascade with it.
func (s *Store) DeleteContent(id int64) error {
	res, err := s.db.Exec(`DELETE FROM contents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetContent fetches one item by ID.
func (s *Store) GetContent(id int64) (models.CatalogItem, error) {
	row := s.db.QueryRow(`SELECT `+catalogColumns+` FROM contents WHERE id = ?`, id)
	item, err := scanCatalogItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CatalogItem{}, ErrNotFound
	}
	return item, err
}

// ListContents returns every item of one kind, newest first. An unset kind
// lists the whole catalog.
func (s *Store) ListContents(kind models.Kind) ([]models.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM contents`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()

	items := []models.CatalogItem{}
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetAverageScore writes the recomputed review average onto an item.
func (s *Store) SetAverageScore(contentID int64, score float64) error {
	_, err := s.db.Exec(`UPDATE contents SET average_score = ?, updated_at = ? WHERE id = ?`,
		score, time.Now().UTC(), contentID)
	if err != nil {
		return fmt.Errorf("set average score: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogItem(row rowScanner) (models.CatalogItem, error) {
	var (
		item      models.CatalogItem
		kind      string
		platforms string
	)
	err := row.Scan(&item.ID, &item.Title, &kind, &item.Year, &item.Genre,
		&item.Description, &item.ImageURL, &item.AverageScore, &platforms,
		&item.Ongoing, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return models.CatalogItem{}, err
	}
	item.Kind = models.Kind(kind)
	if err := json.Unmarshal([]byte(platforms), &item.Platforms); err != nil {
		item.Platforms = nil
	}
	return item, nil
}

func encodePlatforms(platforms []string) (string, error) {
	if platforms == nil {
		platforms = []string{}
	}
	raw, err := json.Marshal(platforms)
	if err != nil {
		return "", fmt.Errorf("encode platforms: %w", err)
	}
	return string(raw), nil
}
