package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/chordkit/internal/autofill"
	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/testutil"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithNow(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"chord_charts", "common_chords"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_MigratesDuplicateCommonTitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Rewind to a pre-v1 database holding duplicate titles.
	for _, stmt := range []string{
		"DROP INDEX idx_common_chords_title_key",
		"PRAGMA user_version = 0",
		`INSERT INTO common_chords (title, title_key, data, created_at) VALUES ('Am', 'am', '{}', '2024-01-01T00:00:00Z')`,
		`INSERT INTO common_chords (title, title_key, data, created_at) VALUES ('AM', 'am', '{}', '2024-01-02T00:00:00Z')`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	var n int
	var title string
	if err := s.db.QueryRow("SELECT COUNT(*), MIN(title) FROM common_chords WHERE title_key = 'am'").Scan(&n, &title); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 || title != "Am" {
		t.Errorf("got %d rows, title %q; want the earliest row only", n, title)
	}
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open("/nonexistent/dir/test.db"); err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)
	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	} {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestCreate_AssignsOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	am, err := s.Create(ctx, "42", testutil.AMinor())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	f, err := s.Create(ctx, "42", testutil.FMajor())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	other, err := s.Create(ctx, "7", testutil.FMajor())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if am.Order != 0 || f.Order != 1 || other.Order != 0 {
		t.Errorf("orders = %d, %d, %d; want 0, 1, 0", am.Order, f.Order, other.Order)
	}
	if am.Title != "Am" || am.ItemID != "42" {
		t.Errorf("record = %+v", am)
	}
	if !am.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", am.CreatedAt, fixedNow)
	}

	d, dropped, err := am.Diagram()
	if err != nil || len(dropped) != 0 {
		t.Fatalf("Diagram() = %v, %v", dropped, err)
	}
	if !diagram.Equal(d, testutil.AMinor()) {
		t.Error("stored diagram does not round-trip")
	}
}

func TestListForItem_EmptyAndOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	recs, err := s.ListForItem(ctx, "none")
	if err != nil {
		t.Fatalf("ListForItem() failed: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("ListForItem() = %#v, want empty non-nil slice", recs)
	}

	a, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("A"))
	b, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("B"))
	c, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("C"))
	if err := s.Reorder(ctx, "1", []int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("Reorder() failed: %v", err)
	}

	recs, err = s.ListForItem(ctx, "1")
	if err != nil {
		t.Fatalf("ListForItem() failed: %v", err)
	}
	var titles []string
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	if got := titles; len(got) != 3 || got[0] != "C" || got[1] != "A" || got[2] != "B" {
		t.Errorf("titles = %v, want [C A B]", got)
	}
}

func TestReorder_RejectsForeignID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("A"))
	b, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("B"))
	x, _ := s.Create(ctx, "2", diagram.Empty().WithTitle("X"))

	err := s.Reorder(ctx, "1", []int64{b.ID, x.ID, a.ID})
	if !IsNotFound(err) {
		t.Fatalf("Reorder() error = %v, want not found", err)
	}
	got, _ := s.Get(ctx, b.ID)
	if got.Order != 1 {
		t.Errorf("order of B = %d after failed reorder, want 1", got.Order)
	}
}

func TestReorder_Partial(t *testing.T) {
	tests := []struct {
		name    string
		reorder func(a, b, c, d int64) []int64
		want    []string
	}{
		{"one chart to front", func(a, b, c, d int64) []int64 { return []int64{c} }, []string{"C", "A", "B", "D"}},
		{"two charts to front", func(a, b, c, d int64) []int64 { return []int64{d, b} }, []string{"D", "B", "A", "C"}},
		{"empty list keeps order", func(a, b, c, d int64) []int64 { return nil }, []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			ctx := context.Background()

			a, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("A"))
			b, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("B"))
			c, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("C"))
			d, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("D"))

			if err := s.Reorder(ctx, "1", tt.reorder(a.ID, b.ID, c.ID, d.ID)); err != nil {
				t.Fatalf("Reorder() failed: %v", err)
			}
			recs, err := s.ListForItem(ctx, "1")
			if err != nil {
				t.Fatalf("ListForItem() failed: %v", err)
			}
			seen := make(map[int]bool)
			var titles []string
			for _, r := range recs {
				if seen[r.Order] {
					t.Errorf("order %d used twice", r.Order)
				}
				seen[r.Order] = true
				titles = append(titles, r.Title)
			}
			if len(titles) != len(tt.want) {
				t.Fatalf("titles = %v, want %v", titles, tt.want)
			}
			for i := range tt.want {
				if titles[i] != tt.want[i] {
					t.Errorf("titles = %v, want %v", titles, tt.want)
					break
				}
			}
		})
	}
}

func TestReorder_RejectsDuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("A"))
	b, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("B"))

	err := s.Reorder(ctx, "1", []int64{b.ID, b.ID, a.ID})
	if !IsInvalidOrder(err) {
		t.Fatalf("Reorder() error = %v, want invalid order", err)
	}
	got, _ := s.Get(ctx, b.ID)
	if got.Order != 1 {
		t.Errorf("order of B = %d after failed reorder, want 1", got.Order)
	}
}

func TestListForItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.Create(ctx, "1", diagram.Empty().WithTitle("A"))
	b, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("B"))
	s.Create(ctx, "2", diagram.Empty().WithTitle("X"))
	s.Create(ctx, "3", diagram.Empty().WithTitle("Y"))
	if err := s.Reorder(ctx, "1", []int64{b.ID}); err != nil {
		t.Fatalf("Reorder() failed: %v", err)
	}

	tests := []struct {
		name  string
		items []string
		want  map[string][]string
	}{
		{"none", nil, map[string][]string{}},
		{"two items", []string{"1", "2"}, map[string][]string{"1": {"B", "A"}, "2": {"X"}}},
		{"item without charts", []string{"3", "9"}, map[string][]string{"3": {"Y"}, "9": {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListForItems(ctx, tt.items)
			if err != nil {
				t.Fatalf("ListForItems() failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(got), len(tt.want))
			}
			for item, titles := range tt.want {
				recs, ok := got[item]
				if !ok {
					t.Fatalf("item %s missing", item)
				}
				if recs == nil {
					t.Errorf("item %s: nil list, want empty", item)
				}
				if len(recs) != len(titles) {
					t.Fatalf("item %s: %d charts, want %d", item, len(recs), len(titles))
				}
				for i, r := range recs {
					if r.Title != titles[i] {
						t.Errorf("item %s chart %d = %s, want %s", item, i, r.Title, titles[i])
					}
				}
			}
		})
	}
}

func TestDeleteMany(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("A"))
	b, _ := s.Create(ctx, "1", diagram.Empty().WithTitle("B"))
	c, _ := s.Create(ctx, "2", diagram.Empty().WithTitle("C"))

	res, err := s.DeleteMany(ctx, []int64{a.ID, 999, c.ID, a.ID})
	if err != nil {
		t.Fatalf("DeleteMany() failed: %v", err)
	}
	if len(res.Deleted) != 2 || res.Deleted[0] != a.ID || res.Deleted[1] != c.ID {
		t.Errorf("Deleted = %v, want [%d %d]", res.Deleted, a.ID, c.ID)
	}
	if len(res.NotFound) != 1 || res.NotFound[0] != 999 {
		t.Errorf("NotFound = %v, want [999]", res.NotFound)
	}
	if _, err := s.Get(ctx, b.ID); err != nil {
		t.Errorf("B should survive: %v", err)
	}
	if _, err := s.Get(ctx, a.ID); !IsNotFound(err) {
		t.Errorf("A still present: %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec, _ := s.Create(ctx, "1", testutil.AMinor())
	updated, err := s.Update(ctx, rec.ID, testutil.FMajor())
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Title != "F" || updated.Order != rec.Order || updated.ItemID != "1" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := s.Update(ctx, 999, testutil.FMajor()); !IsNotFound(err) {
		t.Errorf("Update(999) error = %v, want not found", err)
	}
	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := s.Delete(ctx, rec.ID); !IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
	if _, err := s.Get(ctx, rec.ID); !IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
}

func TestCopyToItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.Create(ctx, "src", testutil.AMinor())
	s.Create(ctx, "src", testutil.FMajor())
	s.Create(ctx, "dst", diagram.Empty().WithTitle("G"))

	res, err := s.CopyToItems(ctx, "src", []string{"dst", "src", "new"})
	if err != nil {
		t.Fatalf("CopyToItems() failed: %v", err)
	}
	if res.ChartsFound != 2 || res.Created != 4 || len(res.TargetItems) != 2 {
		t.Errorf("result = %+v", res)
	}

	dst, _ := s.ListForItem(ctx, "dst")
	if len(dst) != 3 || dst[1].Title != "Am" || dst[1].Order != 1 || dst[2].Order != 2 {
		t.Errorf("dst charts = %+v", dst)
	}
	src, _ := s.ListForItem(ctx, "src")
	if len(src) != 2 {
		t.Errorf("source gained charts: %d", len(src))
	}
}

func TestRawDataIsNormalizedOnRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	raw := json.RawMessage(`{"title":"Dm","fingers":[{"string":2,"fret":3,"fingerNumber":"2"},[1,1],[3,2,"1"],["x"]]}`)
	rec, err := s.CreateRaw(ctx, "1", "Dm", raw)
	if err != nil {
		t.Fatalf("CreateRaw() failed: %v", err)
	}
	d, dropped, err := rec.Diagram()
	if err != nil {
		t.Fatalf("Diagram() failed: %v", err)
	}
	if len(dropped) != 1 {
		t.Errorf("dropped = %v, want one bad entry", dropped)
	}
	want := []diagram.Finger{{String: 1, Fret: 1}, {String: 2, Fret: 3, Number: "2"}, {String: 3, Fret: 2, Number: "1"}}
	got := d.Fingers()
	if len(got) != len(want) {
		t.Fatalf("fingers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("finger %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSeedAndSearchCommon(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	res, err := s.SeedCommon(ctx, []CommonChord{
		{Title: "Am", Diagram: testutil.AMinor()},
		{Title: "F", Diagram: testutil.FMajor()},
		{Title: "AM", Diagram: testutil.AMinor()},
	})
	if err != nil {
		t.Fatalf("SeedCommon() failed: %v", err)
	}
	if res.Inserted != 2 || len(res.Skipped) != 1 || res.Skipped[0] != "AM" {
		t.Errorf("seed result = %+v", res)
	}

	res, err = s.SeedCommon(ctx, []CommonChord{{Title: "am", Diagram: testutil.AMinor()}, {Title: "C", Diagram: diagram.Empty()}})
	if err != nil {
		t.Fatalf("second SeedCommon() failed: %v", err)
	}
	if res.Inserted != 1 || len(res.Skipped) != 1 {
		t.Errorf("second seed result = %+v", res)
	}

	found, err := s.SearchCommon(ctx, " aM ")
	if err != nil {
		t.Fatalf("SearchCommon() failed: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Am" {
		t.Errorf("SearchCommon() = %+v", found)
	}

	all, _ := s.ListCommon(ctx)
	if len(all) != 3 || all[2].Title != "C" || all[2].Order != 2 {
		t.Errorf("ListCommon() = %+v", all)
	}

	keys, err := s.CommonTitles(ctx)
	if err != nil {
		t.Fatalf("CommonTitles() failed: %v", err)
	}
	if !keys["am"] || !keys["c"] || len(keys) != 3 {
		t.Errorf("CommonTitles() = %v", keys)
	}

	c, _, err := all[2].Diagram()
	if err != nil {
		t.Fatalf("Diagram() failed: %v", err)
	}
	if c.Title != "C" {
		t.Errorf("seeded diagram title = %q, want C", c.Title)
	}
}

func TestSource_FeedsResolver(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, _ := s.Create(ctx, "9", testutil.AMinor())
	second, _ := s.Create(ctx, "9", testutil.AMinor().AddFinger(1, 3, "4"))
	s.SeedCommon(ctx, []CommonChord{{Title: "F", Diagram: testutil.FMajor()}})

	r := autofill.New(Source{Store: s})
	d, err := r.Resolve(ctx, "9", "am")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if second.Order <= first.Order {
		t.Fatalf("orders %d, %d", first.Order, second.Order)
	}
	if _, ok := d.FingerAt(1, 3); !ok {
		t.Error("resolver did not pick the most recent saved chart")
	}

	d, err = r.Resolve(ctx, "9", "F")
	if err != nil {
		t.Fatalf("Resolve(F) failed: %v", err)
	}
	if _, ok := d.BarreAt(1); !ok {
		t.Error("common chord F has no barre")
	}
}
