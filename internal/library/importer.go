package library

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/retry"
	"github.com/roach88/chordkit/internal/store"
)

// Seeder is the part of the store the importer writes to.
type Seeder interface {
	CommonTitles(ctx context.Context) (map[string]bool, error)
	SeedCommon(ctx context.Context, chords []store.CommonChord) (store.SeedResult, error)
}

// ImportResult lists what happened to every chord in the collection.
// Skipped and Failed entries carry the reason in parentheses.
type ImportResult struct {
	Imported []string `json:"imported"`
	Skipped  []string `json:"skipped"`
	Failed   []string `json:"failed"`
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithBatchSize sets how many chords are written per transaction.
func WithBatchSize(n int) ImporterOption {
	return func(im *Importer) {
		if n > 0 {
			im.batchSize = n
		}
	}
}

// WithBatchDelay sets the pause between batches.
func WithBatchDelay(d time.Duration) ImporterOption {
	return func(im *Importer) { im.delay = d }
}

// WithImportPolicy sets the retry policy for each batch write.
func WithImportPolicy(p retry.Policy) ImporterOption {
	return func(im *Importer) { im.policy = p }
}

// WithImportSleep replaces the wait used for batch delays and backoff.
func WithImportSleep(fn retry.SleepFunc) ImporterOption {
	return func(im *Importer) { im.sleep = fn }
}

// WithImportLogger sets the logger.
func WithImportLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// Importer loads a chord collection of the form
//
//	{"Am": [{"positions": ["x", "0", "2", "2", "1", "0"]}, ...], ...}
//
// into the common-chord table. Only the first variation of each chord is
// used and it must give six positions.
type Importer struct {
	seeder    Seeder
	batchSize int
	delay     time.Duration
	policy    retry.Policy
	sleep     retry.SleepFunc
	logger    *slog.Logger
}

// NewImporter returns an Importer writing to seeder. Defaults are batches of
// 50 with a 2s pause, and five attempts per batch starting at a 2s backoff.
func NewImporter(seeder Seeder, opts ...ImporterOption) *Importer {
	im := &Importer{
		seeder:    seeder,
		batchSize: 50,
		delay:     2 * time.Second,
		policy:    retry.Policy{MaxAttempts: 5, BaseDelay: 2 * time.Second},
		sleep:     retry.Sleep,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// collectionEntry is one chord name and its raw variations.
type collectionEntry struct {
	Name       string
	Variations json.RawMessage
}

type variation struct {
	Positions []json.RawMessage `json:"positions"`
}

// Import reads the collection from r and writes it in batches. An error is
// returned only when the collection cannot be parsed or a batch write fails
// for good; per-chord problems are reported in the result.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	entries, err := readCollection(r)
	if err != nil {
		return ImportResult{}, err
	}
	existing, err := im.seeder.CommonTitles(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load existing titles: %w", err)
	}

	res := ImportResult{Imported: []string{}, Skipped: []string{}, Failed: []string{}}
	total := (len(entries) + im.batchSize - 1) / im.batchSize
	im.logger.Info("importing chords", "chords", len(entries), "batches", total, "batch_size", im.batchSize)

	for start, n := 0, 1; start < len(entries); start, n = start+im.batchSize, n+1 {
		if start > 0 && im.delay > 0 {
			if err := im.sleep(ctx, im.delay); err != nil {
				return res, err
			}
		}
		end := min(start+im.batchSize, len(entries))

		var batch []store.CommonChord
		for _, e := range entries[start:end] {
			key := diagram.NameKey(e.Name)
			if existing[key] {
				res.Skipped = append(res.Skipped, e.Name+" (already exists)")
				continue
			}
			d, reason := entryDiagram(e)
			if reason != "" {
				res.Failed = append(res.Failed, e.Name+" ("+reason+")")
				continue
			}
			existing[key] = true
			batch = append(batch, store.CommonChord{Title: e.Name, Diagram: d})
		}
		if len(batch) == 0 {
			continue
		}

		var seeded store.SeedResult
		err := retry.Do(ctx, im.policy, im.sleep, im.logger, func(ctx context.Context) error {
			var err error
			seeded, err = im.seeder.SeedCommon(ctx, batch)
			return err
		})
		if err != nil {
			return res, fmt.Errorf("batch %d/%d: %w", n, total, err)
		}
		skipped := make(map[string]bool, len(seeded.Skipped))
		for _, t := range seeded.Skipped {
			skipped[t] = true
			res.Skipped = append(res.Skipped, t+" (already exists)")
		}
		for _, c := range batch {
			if !skipped[c.Title] {
				res.Imported = append(res.Imported, c.Title)
			}
		}
		im.logger.Info("batch imported", "batch", n, "of", total, "inserted", seeded.Inserted)
	}

	im.logger.Info("import finished",
		"imported", len(res.Imported),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed),
	)
	return res, nil
}

// readCollection parses the top-level object keeping key order.
func readCollection(r io.Reader) ([]collectionEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parse collection: expected an object of chord names")
	}
	var out []collectionEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse collection: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parse collection: expected a chord name, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse collection: chord %q: %w", name, err)
		}
		out = append(out, collectionEntry{Name: name, Variations: raw})
	}
	return out, nil
}

// entryDiagram builds the diagram for a collection entry, or returns why it
// cannot.
func entryDiagram(e collectionEntry) (diagram.Diagram, string) {
	var vars []variation
	if err := json.Unmarshal(e.Variations, &vars); err != nil || len(vars) == 0 {
		return diagram.Diagram{}, "invalid data format"
	}
	positions := vars[0].Positions
	if len(positions) != diagram.DefaultNumStrings {
		return diagram.Diagram{}, "invalid positions array"
	}
	frets := make([]string, len(positions))
	for i, p := range positions {
		var s string
		if err := json.Unmarshal(p, &s); err == nil {
			frets[i] = s
			continue
		}
		var n int
		if err := json.Unmarshal(p, &n); err != nil {
			return diagram.Diagram{}, "invalid positions array"
		}
		frets[i] = strconv.Itoa(n)
	}
	d, err := diagram.FromFrets(e.Name, frets, diagram.DefaultNumFrets)
	if err != nil {
		return diagram.Diagram{}, "processing error"
	}
	return d, ""
}
