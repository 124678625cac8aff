package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samvad-hq/samvad-news-importer/internal/config"
	"github.com/samvad-hq/samvad-news-importer/internal/importer"
	"github.com/samvad-hq/samvad-news-importer/internal/logger"
)

const feed = `{"items":[
  {"title":"Prefeitura anuncia obras no centro","content":["A prefeitura anunciou obras.","O trânsito será desviado."],"source_url":"https://news.example.com/obras"},
  {"titulo":"Seleção vence amistoso","conteudo":"<p>O time venceu por dois a zero.</p>","categoria":"futebol","link":"https://news.example.com/selecao"},
  {"title":"x"}
]}`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	return &config.Config{
		StoreType:        "memory",
		DefaultAuthor:    "Redação",
		ObjectStoreType:  "local",
		LocalStoragePath: filepath.Join(dir, "media"),
		PublicBaseURL:    "http://localhost/media",
		ImageMaxBytes:    1 << 20,
		SlugMaxAttempts:  20,
	}
}

func TestImportFilesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "feed.json", feed)

	app, err := NewImporter(context.Background(), testConfig(t, dir), logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewImporter: %v", err)
	}
	defer app.Close()

	report, err := app.ImportFiles(context.Background(), []string{path}, importer.Options{})
	if err != nil {
		t.Fatalf("ImportFiles: %v", err)
	}
	if report.Total != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Results[2].Success {
		t.Fatalf("expected the short title item to fail")
	}
	if done, total := app.Progress(); done != 3 || total != 3 {
		t.Fatalf("unexpected progress %d/%d", done, total)
	}
}

func TestImportProvidersSkipsAlreadyImported(t *testing.T) {
	dir := t.TempDir()
	feedPath := writeTemp(t, dir, "feed.json", feed)
	cfg := testConfig(t, dir)
	cfg.ProvidersFile = writeTemp(t, dir, "providers.yaml", `
providers:
  - id: manual
    type: json_file
    source_url: `+feedPath+`
`)

	app, err := NewImporter(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewImporter: %v", err)
	}
	defer app.Close()

	first, err := app.ImportProviders(context.Background(), importer.Options{})
	if err != nil {
		t.Fatalf("ImportProviders: %v", err)
	}
	if len(first) != 1 || first[0].Report.Succeeded != 2 {
		t.Fatalf("unexpected first run %+v", first)
	}

	second, err := app.ImportProviders(context.Background(), importer.Options{})
	if err != nil {
		t.Fatalf("ImportProviders: %v", err)
	}
	// only the item without a source url is retried
	if second[0].Skipped != 2 || second[0].Report.Total != 1 {
		t.Fatalf("unexpected second run %+v", second[0])
	}
}

func TestValidateFiles(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "feed.json", feed)
	rep, err := ValidateFiles([]string{path})
	if err != nil {
		t.Fatalf("ValidateFiles: %v", err)
	}
	if rep.Valid || len(rep.ValidItems) != 2 {
		t.Fatalf("unexpected report valid=%v items=%d", rep.Valid, len(rep.ValidItems))
	}
}

func TestLoadItemsErrors(t *testing.T) {
	if _, err := LoadItems(nil); err == nil {
		t.Fatalf("expected error without files")
	}
	if _, err := LoadItems([]string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := writeTemp(t, t.TempDir(), "bad.json", "{not json")
	if _, err := LoadItems([]string{bad}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewImporterRejectsUnknownStore(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.StoreType = "cassandra"
	if _, err := NewImporter(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestNewImporterOpensBoltInNestedDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.StoreType = "bbolt"
	cfg.BBoltPath = filepath.Join(dir, "data", "nested", "articles.db")

	app, err := NewImporter(context.Background(), cfg, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewImporter: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(cfg.BBoltPath); err != nil {
		t.Fatalf("expected bolt file to be created: %v", err)
	}
}

func TestStoreLocation(t *testing.T) {
	cases := map[string]string{
		"postgres": "postgres://importer@db/news",
		"bbolt":    "/var/lib/samvad/articles.db",
		"":         "/var/lib/samvad/articles.db",
		"memory":   "",
	}
	for typ, want := range cases {
		cfg := &config.Config{StoreType: typ, PostgresDSN: "postgres://importer@db/news", BBoltPath: "/var/lib/samvad/articles.db"}
		if got := storeLocation(cfg); got != want {
			t.Errorf("storeLocation(%q) = %q, want %q", typ, got, want)
		}
	}
}
