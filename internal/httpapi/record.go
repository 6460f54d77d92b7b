package httpapi

import (
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	"github.com/roach88/chordkit/internal/store"
)

// recordMeta is the part of a wire record that is not diagram data.
type recordMeta struct {
	ID        int64  `json:"id"`
	ItemID    string `json:"itemId"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	CreatedAt string `json:"createdAt"`
}

// encodeRecord renders a stored chart as a wire record. The diagram is
// re-encoded canonically; unreadable finger entries are logged and dropped.
func encodeRecord(r store.Record, logger *slog.Logger) (map[string]any, error) {
	d, dropped, err := r.Diagram()
	if err != nil {
		return nil, fmt.Errorf("chart %d: %w", r.ID, err)
	}
	for _, de := range dropped {
		logger.Warn("dropped stored finger", "id", r.ID, "error", de)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal chart %d: %w", r.ID, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal chart %d: %w", r.ID, err)
	}
	out["id"] = r.ID
	out["itemId"] = r.ItemID
	out["order"] = r.Order
	out["createdAt"] = r.CreatedAt.UTC().Format(time.RFC3339)
	return out, nil
}

func encodeRecords(recs []store.Record, logger *slog.Logger) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		m, err := encodeRecord(r, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// decodeRecord reads a wire record. The whole object is kept as Data; the
// diagram decoder ignores the metadata keys.
func decodeRecord(raw []byte) (store.Record, error) {
	var meta recordMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return store.Record{}, fmt.Errorf("decode record: %w", err)
	}
	r := store.Record{
		ID:     meta.ID,
		ItemID: meta.ItemID,
		Title:  meta.Title,
		Order:  meta.Order,
		Data:   append([]byte(nil), raw...),
	}
	if meta.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, meta.CreatedAt)
		if err != nil {
			return store.Record{}, fmt.Errorf("decode record %d: createdAt: %w", meta.ID, err)
		}
		r.CreatedAt = t
	}
	return r, nil
}
