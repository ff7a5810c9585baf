package medicines

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/medinfo/medicines-api/index"
)

type stubEmbedder struct {
	fail bool
}

func (s stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("embedding backend down")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "medicines.json"), []byte(`[{"id": 1}]`), 0o644); err != nil {
		t.Fatalf("Writing table file: %v", err)
	}

	source := NewFileSource(dir)

	data, err := source.Load(TableMedicines)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != `[{"id": 1}]` {
		t.Errorf("Unexpected table contents: %s", data)
	}

	if _, err := source.Load(TableSymptoms); err == nil {
		t.Error("Expected error for a missing table file")
	}
}

func writeCorpusDir(t *testing.T, src mapSource) string {
	t.Helper()

	dir := t.TempDir()
	for table, content := range src {
		if err := os.WriteFile(filepath.Join(dir, table+".json"), []byte(content), 0o644); err != nil {
			t.Fatalf("Writing table %s: %v", table, err)
		}
	}
	return dir
}

func TestLoadCorpus(t *testing.T) {
	dir := writeCorpusDir(t, validSource())

	loader := NewLoader(NewFileSource(dir), index.NewBuilder(stubEmbedder{}))

	medicines, idx, err := loader.LoadCorpus(context.Background())
	if err != nil {
		t.Fatalf("LoadCorpus failed: %v", err)
	}

	if len(medicines) != 2 {
		t.Errorf("Expected 2 medicines, got %d", len(medicines))
	}
	if idx.Len() != 2 {
		t.Errorf("Expected 2 documents, got %d", idx.Len())
	}
	if _, ok := idx.ByOwnerID(medicines[0].ID); !ok {
		t.Errorf("Index missing document for medicine %d", medicines[0].ID)
	}
}

func TestLoadCorpusMissingDirectory(t *testing.T) {
	loader := NewLoader(NewFileSource(filepath.Join(t.TempDir(), "absent")), index.NewBuilder(stubEmbedder{}))

	if _, _, err := loader.LoadCorpus(context.Background()); err == nil {
		t.Fatal("Expected error for a missing corpus directory")
	}
}

func TestLoadCorpusEmbedderFailure(t *testing.T) {
	dir := writeCorpusDir(t, validSource())

	loader := NewLoader(NewFileSource(dir), index.NewBuilder(stubEmbedder{fail: true}))

	medicines, idx, err := loader.LoadCorpus(context.Background())
	if err == nil {
		t.Fatal("Expected error when embedding fails")
	}
	if medicines != nil || idx != nil {
		t.Error("A failed load must not return a partial corpus")
	}
}
