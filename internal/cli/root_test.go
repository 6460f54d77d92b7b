package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chordkit/internal/config"
	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/store"
	"github.com/roach88/chordkit/internal/testutil"
	"github.com/roach88/chordkit/internal/tui"
)

// execute runs the CLI with a private config dir and returns its output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func amJSON(t *testing.T) string {
	t.Helper()
	data, err := testutil.AMinor().MarshalJSON()
	require.NoError(t, err)
	return string(data)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "chordkit", cmd.Use)
	assert.Contains(t, cmd.Long, "chord diagrams")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"edit"}, {"render"}, {"autofill"}, {"import"},
		{"library", "seed"}, {"library", "list"},
		{"validate"}, {"serve"}, {"test"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "library", "list", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, _, err := execute(t, "serve", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "am.json", amJSON(t))

	out, _, err := execute(t, "render", in)
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")

	png := filepath.Join(dir, "am.png")
	_, _, err = execute(t, "render", in, "--surface", "png", "-o", png)
	require.NoError(t, err)
	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])

	out, _, err = execute(t, "render", in, "--surface", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "═", "first position draws the nut")
}

func TestRender_Errors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "am.json", amJSON(t))

	_, _, err := execute(t, "render", in, "--surface", "pdf")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "render", filepath.Join(dir, "missing.json"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	bad := writeFile(t, dir, "bad.json", "[1,2]")
	_, _, err = execute(t, "render", bad)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "am.json", amJSON(t))

	out, _, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s) valid")

	bad := writeFile(t, dir, "bad.json", `{"title":"Am","colour":"red"}`)
	out, _, err = execute(t, "validate", good, bad, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidationOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Files)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, bad, resp.Data.Errors[0].File)

	_, _, err = execute(t, "validate", writeFile(t, dir, "notes.txt", "hi"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_Library(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "lib.cue", "chords: {\n\tAm: {frets: 12}\n}\n")
	_, _, err := execute(t, "validate", bad)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLibraryList(t *testing.T) {
	out, _, err := execute(t, "library", "list", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []LibraryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.Data, LibraryEntry{Title: "Am", Frets: testutil.AMinor().Frets()})
}

func TestLibrarySeedThenAutofill(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")

	out, _, err := execute(t, "--db", db, "library", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded")

	out, _, err = execute(t, "--db", db, "library", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 0 chords", "a second seed skips everything")

	out, _, err = execute(t, "--db", db, "library", "list", "--stored")
	require.NoError(t, err)
	assert.Contains(t, out, "Am")

	out, _, err = execute(t, "--db", db, "autofill", "am", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data AutofillOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, sourceDB, resp.Data.Source)
	assert.Equal(t, testutil.AMinor().Frets(), resp.Data.Frets)
}

func TestAutofill(t *testing.T) {
	out, _, err := execute(t, "autofill", "Am", "--source", "library")
	require.NoError(t, err)
	assert.Contains(t, out, "Am  x 0 2 2 1 0")

	_, _, err = execute(t, "autofill", "Qsus13", "--source", "library")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, "autofill", "Am", "--source", "carrier-pigeon")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "autofill", "Am", "--source", "api")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "api needs a base URL")
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "charts.db")
	collection := writeFile(t, dir, "chords.json", `{
		"Xm": [{"positions": ["x", "0", "2", "2", "1", "0"]}],
		"Short": [{"positions": ["0", "2"]}]
	}`)

	out, _, err := execute(t, "--db", db, "import", collection, "--delay", "0", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Imported []string `json:"imported"`
			Failed   []string `json:"failed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"Xm"}, resp.Data.Imported)
	assert.Len(t, resp.Data.Failed, 1)

	_, _, err = execute(t, "--db", db, "import", filepath.Join(dir, "missing.json"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand(t *testing.T) {
	out, _, err := execute(t, "test", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ nut_cycle")
	assert.Contains(t, out, "All scenarios passed")

	_, _, err = execute(t, "test", filepath.Join(t.TempDir(), "nowhere"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_Golden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mute.yaml", `
name: mute
description: two nut clicks mute the low string
steps:
  - nut: 6
  - nut: 6
expect:
  muted: [6]
`)

	_, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	golden := filepath.Join(dir, "golden", "mute.golden")
	require.FileExists(t, golden)

	out, _, err := execute(t, "test", dir, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"passed": 1`)

	require.NoError(t, os.WriteFile(golden, []byte(`{}`), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")

	out, _, err = execute(t, "test", dir, "--filter", "drag_*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestEdit_NeedsTarget(t *testing.T) {
	_, _, err := execute(t, "edit")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStartingDiagram(t *testing.T) {
	logger := (&RootOptions{}).logger(&bytes.Buffer{})
	cfg := config.Defaults()

	d, err := startingDiagram(cfg, filepath.Join(t.TempDir(), "new.json"), logger)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
	assert.Equal(t, cfg.Editor.NumStrings, d.NumStrings())

	dir := t.TempDir()
	d, err = startingDiagram(cfg, writeFile(t, dir, "am.json", amJSON(t)), logger)
	require.NoError(t, err)
	assert.Equal(t, "Am", d.Title)
}

func TestEdit_UnknownChart(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")
	_, _, err := execute(t, "--db", db, "edit", "--chart", "999")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, "--db", db, "edit", "--chart=-3")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStoredDiagram(t *testing.T) {
	ctx := context.Background()
	logger := (&RootOptions{}).logger(&bytes.Buffer{})
	st, err := store.Open(filepath.Join(t.TempDir(), "charts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	rec, err := st.Create(ctx, "song-1", testutil.AMinor())
	require.NoError(t, err)

	d, itemID, err := storedDiagram(ctx, st, rec.ID, "", logger)
	require.NoError(t, err)
	assert.Equal(t, "song-1", itemID, "the chart's own item is used for lookups")
	assert.True(t, diagram.Equal(testutil.AMinor(), d))

	_, _, err = storedDiagram(ctx, st, rec.ID, "song-2", logger)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestChartSaver(t *testing.T) {
	ctx := context.Background()
	logger := (&RootOptions{}).logger(&bytes.Buffer{})

	tests := []struct {
		name      string
		itemID    string
		existing  bool
		wantCount int
	}{
		{"update keeps a single chart", "song-1", true, 1},
		{"new target creates a chart", "song-1", false, 2},
		{"new target without item only writes the file", "", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := store.Open(filepath.Join(t.TempDir(), "charts.db"))
			require.NoError(t, err)
			t.Cleanup(func() { st.Close() })

			rec, err := st.Create(ctx, "song-1", testutil.AMinor())
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "out.json")
			saver := chartSaver{store: st, path: path, itemID: tt.itemID, logger: logger}
			edited := testutil.AMinor().WithTitle("Am add9").AddFinger(2, 3, "4")

			target := tui.Target{}
			if tt.existing {
				target.ChartID = rec.ID
			}
			require.NoError(t, saver.save(ctx, edited, target))
			require.FileExists(t, path)

			recs, err := st.ListForItem(ctx, "song-1")
			require.NoError(t, err)
			assert.Len(t, recs, tt.wantCount)

			got, err := st.Get(ctx, rec.ID)
			require.NoError(t, err)
			if tt.existing {
				assert.Equal(t, "Am add9", got.Title)
				assert.Equal(t, rec.Order, got.Order)
			} else {
				assert.Equal(t, "Am", got.Title, "the original chart is untouched")
			}
		})
	}
}

func TestChartSaver_MissingChart(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "charts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	saver := chartSaver{store: st, logger: (&RootOptions{}).logger(&bytes.Buffer{})}
	err = saver.save(ctx, testutil.AMinor(), tui.Target{ChartID: 77})
	assert.True(t, store.IsNotFound(err))
}
