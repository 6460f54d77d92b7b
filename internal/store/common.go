package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/chordkit/internal/diagram"
)

// CommonChord is one entry of the curated chord set.
type CommonChord struct {
	Title   string
	Diagram diagram.Diagram
}

// SeedResult counts what SeedCommon did.
type SeedResult struct {
	Inserted int      `json:"inserted"`
	Skipped  []string `json:"skipped"`
}

// SearchCommon returns the common chords whose title matches name, compared
// by diagram.NameKey.
func (s *Store) SearchCommon(ctx context.Context, name string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, '', title, sort_order, created_at, data
		FROM common_chords
		WHERE title_key = ?
		ORDER BY sort_order ASC, id ASC
	`, diagram.NameKey(name))
	if err != nil {
		return nil, fmt.Errorf("query common chords: %w", err)
	}
	return scanRecords(rows, "common chords")
}

// ListCommon returns every common chord in order.
func (s *Store) ListCommon(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, '', title, sort_order, created_at, data
		FROM common_chords
		ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query common chords: %w", err)
	}
	return scanRecords(rows, "common chords")
}

// SeedCommon adds chords to the common set in one transaction. A chord whose
// title already exists (case-insensitively) is skipped, including duplicates
// within the batch.
func (s *Store) SeedCommon(ctx context.Context, chords []CommonChord) (SeedResult, error) {
	result := SeedResult{Skipped: []string{}}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM common_chords`,
		).Scan(&next); err != nil {
			return fmt.Errorf("query next order: %w", err)
		}
		created := s.now().UTC().Format(time.RFC3339)
		for _, c := range chords {
			d := c.Diagram
			if d.Title == "" {
				d = d.WithTitle(c.Title)
			}
			data, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("marshal %q: %w", c.Title, err)
			}
			res, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO common_chords (title, title_key, data, sort_order, created_at)
				VALUES (?, ?, ?, ?, ?)
			`, c.Title, diagram.NameKey(c.Title), string(data), next, created)
			if err != nil {
				return fmt.Errorf("insert common chord %q: %w", c.Title, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if n == 0 {
				result.Skipped = append(result.Skipped, c.Title)
				continue
			}
			result.Inserted++
			next++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return result, nil
}

// CommonTitles returns the NameKey of every common chord.
func (s *Store) CommonTitles(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title_key FROM common_chords`)
	if err != nil {
		return nil, fmt.Errorf("query common titles: %w", err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan common title: %w", err)
		}
		out[k] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate common titles: %w", err)
	}
	return out, nil
}
