package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

// Files matching an ignore pattern are never logged, whatever form the
// matching path takes (base name, relative, absolute).
func TestIgnorePatternFiltering(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		// "keep" is the fixed negative-case extension below.
		ext := rapid.StringMatching(`[a-z]{2,4}`).
			Filter(func(s string) bool { return s != "keep" }).
			Draw(rt, "ext")
		name := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "name")

		w := &Watcher{Dir: "/sweep/inbox"}
		patterns := []string{"*." + ext}

		if !w.isIgnored("/sweep/inbox/"+name+"."+ext, patterns) {
			rt.Fatalf("expected %s.%s to match pattern *.%s", name, ext, ext)
		}
		if w.isIgnored("/sweep/inbox/"+name+".keep", patterns) {
			rt.Fatalf("%s.keep unexpectedly matched pattern *.%s", name, ext)
		}
	})
}

func TestIsIgnoredRelativePattern(t *testing.T) {
	w := &Watcher{Dir: "/sweep/inbox"}
	if !w.isIgnored("/sweep/inbox/tmp/scratch.txt", []string{"tmp/*"}) {
		t.Fatal("relative pattern tmp/* did not match tmp/scratch.txt")
	}
	if w.isIgnored("/sweep/inbox/docs/scratch.txt", []string{"tmp/*"}) {
		t.Fatal("relative pattern tmp/* matched a path outside tmp/")
	}
}

func TestLoadIgnorePatternsMergesFile(t *testing.T) {
	dir := t.TempDir()
	content := "# comment\n*.tmp\n\nbuild/*\n"
	if err := os.WriteFile(filepath.Join(dir, ".docsweepignore"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &Watcher{Dir: dir, IgnorePatterns: []string{"*.bak"}}
	patterns, err := w.loadIgnorePatterns()
	if err != nil {
		t.Fatalf("loadIgnorePatterns: %v", err)
	}

	want := map[string]bool{"*.bak": true, "*.tmp": true, "build/*": true}
	if len(patterns) != len(want) {
		t.Fatalf("got %d patterns %v, want %d", len(patterns), patterns, len(want))
	}
	for _, p := range patterns {
		if !want[p] {
			t.Errorf("unexpected pattern %q", p)
		}
	}
}

func TestLoadIgnorePatternsMissingFile(t *testing.T) {
	w := &Watcher{Dir: t.TempDir(), IgnorePatterns: []string{"*.bak"}}
	patterns, err := w.loadIgnorePatterns()
	if err != nil {
		t.Fatalf("loadIgnorePatterns: %v", err)
	}
	if len(patterns) != 1 || patterns[0] != "*.bak" {
		t.Fatalf("got %v, want [*.bak]", patterns)
	}
}
