package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/chordkit/internal/diagram"
)

// Record is one saved chord chart.
type Record struct {
	ID        int64
	ItemID    string
	Title     string
	Order     int
	CreatedAt time.Time
	Data      json.RawMessage
}

// Diagram decodes the stored data. Finger entries that cannot be read are
// dropped and returned alongside.
func (r Record) Diagram() (diagram.Diagram, []*diagram.DecodeError, error) {
	return diagram.Decode(r.Data)
}

// CopyResult summarizes CopyToItems.
type CopyResult struct {
	ChartsFound int      `json:"charts_found"`
	TargetItems []string `json:"target_items"`
	Created     int      `json:"created"`
}

const chartColumns = `id, item_id, title, sort_order, created_at, data`

// ListForItem returns the item's charts by order, then id.
// Returns an empty slice if the item has none.
func (s *Store) ListForItem(ctx context.Context, itemID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chartColumns+`
		FROM chord_charts
		WHERE item_id = ?
		ORDER BY sort_order ASC, id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query chord charts: %w", err)
	}
	return scanRecords(rows, "chord charts")
}

// ListForItems returns the charts of each item keyed by item id, each list
// ordered as ListForItem orders it. Every requested item has an entry, empty
// when it has no charts.
func (s *Store) ListForItems(ctx context.Context, itemIDs []string) (map[string][]Record, error) {
	out := make(map[string][]Record, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
		out[id] = []Record{}
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chartColumns+`
		FROM chord_charts
		WHERE item_id IN (`+placeholders(len(itemIDs))+`)
		ORDER BY item_id ASC, sort_order ASC, id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query chord charts: %w", err)
	}
	recs, err := scanRecords(rows, "chord charts")
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		out[r.ItemID] = append(out[r.ItemID], r)
	}
	return out, nil
}

// Get returns one chart.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chartColumns+` FROM chord_charts WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("chart %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query chord chart: %w", err)
	}
	return r, nil
}

// Create saves d as the item's last chart.
func (s *Store) Create(ctx context.Context, itemID string, d diagram.Diagram) (Record, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return Record{}, fmt.Errorf("marshal diagram: %w", err)
	}
	return s.CreateRaw(ctx, itemID, d.Title, data)
}

// CreateRaw saves already-encoded diagram JSON as the item's last chart. The
// new chart's order is one past the item's current maximum.
func (s *Store) CreateRaw(ctx context.Context, itemID, title string, data json.RawMessage) (Record, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertChart(ctx, tx, itemID, title, data)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) insertChart(ctx context.Context, tx *sql.Tx, itemID, title string, data json.RawMessage) (int64, error) {
	var next int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM chord_charts WHERE item_id = ?`, itemID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("query next order: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO chord_charts (item_id, title, title_key, data, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, itemID, title, diagram.NameKey(title), string(data), next, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert chord chart: %w", err)
	}
	return res.LastInsertId()
}

// Update replaces a chart's diagram, keeping its item and order.
func (s *Store) Update(ctx context.Context, id int64, d diagram.Diagram) (Record, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return Record{}, fmt.Errorf("marshal diagram: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE chord_charts SET title = ?, title_key = ?, data = ? WHERE id = ?
	`, d.Title, diagram.NameKey(d.Title), string(data), id)
	if err != nil {
		return Record{}, fmt.Errorf("update chord chart: %w", err)
	}
	if err := expectOne(res, id); err != nil {
		return Record{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes a chart.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chord_charts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chord chart: %w", err)
	}
	return expectOne(res, id)
}

// DeleteResult summarizes DeleteMany.
type DeleteResult struct {
	Deleted  []int64 `json:"deleted"`
	NotFound []int64 `json:"not_found"`
}

// DeleteMany removes the charts in one transaction. Ids that do not exist
// are reported in NotFound rather than failing the batch.
func (s *Store) DeleteMany(ctx context.Context, ids []int64) (DeleteResult, error) {
	res := DeleteResult{Deleted: []int64{}, NotFound: []int64{}}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		seen := make(map[int64]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			r, err := tx.ExecContext(ctx, `DELETE FROM chord_charts WHERE id = ?`, id)
			if err != nil {
				return fmt.Errorf("delete chord chart %d: %w", id, err)
			}
			n, err := r.RowsAffected()
			if err != nil {
				return fmt.Errorf("delete chord chart %d: %w", id, err)
			}
			if n == 0 {
				res.NotFound = append(res.NotFound, id)
			} else {
				res.Deleted = append(res.Deleted, id)
			}
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// Reorder moves the charts in ids to the front of the item's list, in that
// order. Charts not named keep their relative order after them, and every
// chart gets a distinct position. Every id must belong to the item and appear
// once; nothing changes otherwise.
func (s *Store) Reorder(ctx context.Context, itemID string, ids []int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM chord_charts WHERE item_id = ? ORDER BY sort_order ASC, id ASC`, itemID)
		if err != nil {
			return fmt.Errorf("query chord charts: %w", err)
		}
		var current []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan chord chart: %w", err)
			}
			current = append(current, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate chord charts: %w", err)
		}

		owned := make(map[int64]bool, len(current))
		for _, id := range current {
			owned[id] = true
		}
		placed := make(map[int64]bool, len(ids))
		order := make([]int64, 0, len(current))
		for _, id := range ids {
			if !owned[id] {
				return fmt.Errorf("reorder item %s: chart %d: %w", itemID, id, ErrNotFound)
			}
			if placed[id] {
				return fmt.Errorf("reorder item %s: chart %d listed twice: %w", itemID, id, ErrInvalidOrder)
			}
			placed[id] = true
			order = append(order, id)
		}
		for _, id := range current {
			if !placed[id] {
				order = append(order, id)
			}
		}

		for i, id := range order {
			if _, err := tx.ExecContext(ctx,
				`UPDATE chord_charts SET sort_order = ? WHERE id = ?`, i, id); err != nil {
				return fmt.Errorf("reorder chord charts: %w", err)
			}
		}
		return nil
	})
}

// CopyToItems appends a copy of every chart of source to each target item.
// A target equal to source is skipped.
func (s *Store) CopyToItems(ctx context.Context, source string, targets []string) (CopyResult, error) {
	charts, err := s.ListForItem(ctx, source)
	if err != nil {
		return CopyResult{}, err
	}
	result := CopyResult{ChartsFound: len(charts), TargetItems: []string{}}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, target := range targets {
			if target == source {
				continue
			}
			for _, c := range charts {
				if _, err := s.insertChart(ctx, tx, target, c.Title, c.Data); err != nil {
					return fmt.Errorf("copy chart %d to item %s: %w", c.ID, target, err)
				}
				result.Created++
			}
			result.TargetItems = append(result.TargetItems, target)
		}
		return nil
	})
	if err != nil {
		return CopyResult{}, err
	}
	return result, nil
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("chart %d: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var created, data string
	if err := row.Scan(&r.ID, &r.ItemID, &r.Title, &r.Order, &created, &data); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	r.Data = json.RawMessage(data)
	return r, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func scanRecords(rows *sql.Rows, what string) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	// Return empty slice instead of nil
	if out == nil {
		out = []Record{}
	}
	return out, nil
}
