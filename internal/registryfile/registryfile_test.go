package registryfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type entry struct {
	ID  string `json:"id" yaml:"id"`
	URL string `json:"url" yaml:"url"`
}

type file struct {
	Entries []entry `json:"entries" yaml:"entries"`
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDecodePicksFormatByExtension(t *testing.T) {
	var y file
	if err := Decode(write(t, "r.yaml", "entries:\n  - id: a\n    url: https://a.example\n"), "test", &y); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var j file
	if err := Decode(write(t, "r.json", `{"entries":[{"id":"b","url":"https://b.example"}]}`), "test", &j); err != nil {
		t.Fatalf("json: %v", err)
	}
	var n file
	if err := Decode(write(t, "r.conf", `{"entries":[{"id":"c"}]}`), "test", &n); err != nil {
		t.Fatalf("extensionless: %v", err)
	}
	if y.Entries[0].ID != "a" || j.Entries[0].ID != "b" || n.Entries[0].ID != "c" {
		t.Fatalf("unexpected decode %v %v %v", y, j, n)
	}

	var bad file
	err := Decode(write(t, "r.json", "entries: [ {"), "widgets", &bad)
	if err == nil || !strings.Contains(err.Error(), "decode json widgets") {
		t.Fatalf("expected json decode error, got %v", err)
	}
	if err := Decode("  ", "widgets", &bad); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty path error, got %v", err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SAMVAD_HOOK_TOKEN", "s3cr3t")
	out, err := ExpandEnv([]byte(`token: "Bearer ${SAMVAD_HOOK_TOKEN}" pattern: "^a$b"`))
	if err != nil {
		t.Fatalf("ExpandEnv: %v", err)
	}
	if string(out) != `token: "Bearer s3cr3t" pattern: "^a$b"` {
		t.Fatalf("unexpected expansion %s", out)
	}

	_, err = ExpandEnv([]byte("${SAMVAD_UNSET_B} ${SAMVAD_UNSET_A} ${SAMVAD_UNSET_A}"))
	if err == nil || !strings.Contains(err.Error(), "SAMVAD_UNSET_A, SAMVAD_UNSET_B") {
		t.Fatalf("expected sorted missing names, got %v", err)
	}
}

func TestIndex(t *testing.T) {
	items := []entry{{ID: "a"}, {ID: "b", URL: "x"}}
	idx, err := NewIndex("entry", items, func(e entry) string { return e.ID })
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if got, ok := idx.ByID(" b "); !ok || got.URL != "x" {
		t.Fatalf("ByID: %v %v", got, ok)
	}
	all := idx.All()
	all[0].ID = "mutated"
	if idx.All()[0].ID != "a" {
		t.Fatalf("All must return a copy")
	}
	if f := idx.Filter(func(e entry) bool { return e.URL != "" }); len(f) != 1 || f[0].ID != "b" {
		t.Fatalf("Filter: %v", f)
	}

	if _, err := NewIndex("entry", []entry{{ID: "a"}, {ID: "a"}}, func(e entry) string { return e.ID }); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := NewIndex("entry", []entry{{}}, func(e entry) string { return e.ID }); err == nil {
		t.Fatalf("expected empty id error")
	}
	var nilIdx *Index[entry]
	if _, ok := nilIdx.ByID("a"); ok || nilIdx.All() != nil {
		t.Fatalf("nil index should be empty")
	}
}
