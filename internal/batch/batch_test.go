package batch

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"gla2smd/internal/convert"
	"gla2smd/internal/gla/glatest"
	"gla2smd/internal/logger"
	"gla2smd/internal/preview"
)

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.Discard())
}

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for rel, data := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string][]byte{
		"b.gla":         nil,
		"a/walk.GLA":    nil,
		"a/run.gla.zst": nil,
		"notes.txt":     nil,
		"a/skin.glm":    nil,
	})
	got, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{
		filepath.Join("a", "run.gla.zst"),
		filepath.Join("a", "walk.GLA"),
		"b.gla",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	broken := glatest.TwoBone().Build()
	in := writeTree(t, map[string][]byte{
		"humanoid/walk.gla": glatest.TwoBone().Build(),
		"broken.gla":        broken[:50],
	})
	out := t.TempDir()

	files, err := Discover(in)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	cfg := Config{
		InputDir:  in,
		OutputDir: out,
		Convert:   convert.DefaultOptions(),
		Compress:  true,
		Workers:   2,
		Preview:   &preview.Options{Size: 32, Supersample: 1},
	}
	started := time.Now()
	results := Run(testContext(), cfg, files)
	if len(results) != 2 {
		t.Fatalf("results: got %d want 2", len(results))
	}

	bad, good := results[0], results[1]
	if bad.Input != "broken.gla" || bad.Success || bad.Error == "" {
		t.Fatalf("broken file result: %+v", bad)
	}
	if !good.Success || good.Frames != 3 || good.Bones != 2 {
		t.Fatalf("walk result: %+v", good)
	}
	if good.Output != "humanoid/walk.smd.zst" || good.Preview != "humanoid/walk.webp" {
		t.Fatalf("outputs: got %q, %q", good.Output, good.Preview)
	}
	for _, rel := range []string{good.Output, good.Preview} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("missing output: %v", err)
		}
	}

	path := filepath.Join(out, "manifest.json")
	if err := WriteManifest(path, NewManifest(cfg, started, results)); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	m, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if m.RunID == "" || m.Total != 2 || m.Succeeded != 1 || m.Failed != 1 {
		t.Fatalf("manifest: %+v", m)
	}
	if m.Files[1].Output != good.Output {
		t.Fatalf("manifest file entry: %+v", m.Files[1])
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	in := writeTree(t, map[string][]byte{"a.gla": glatest.TwoBone().Build()})
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	results := Run(ctx, Config{InputDir: in, OutputDir: t.TempDir(), Convert: convert.DefaultOptions()}, []string{"a.gla", "b.gla"})
	for _, r := range results {
		if r.Success || r.Error == "" {
			t.Fatalf("cancelled run produced %+v", r)
		}
	}
}

func TestNewManifestRunIDs(t *testing.T) {
	t.Parallel()

	a := NewManifest(Config{}, time.Now(), nil)
	b := NewManifest(Config{}, time.Now(), nil)
	if a.RunID == b.RunID {
		t.Fatal("run ids should differ")
	}
}
