// Package medicines loads the raw medicine tables and resolves them into the
// fully-populated entities used by the rest of the service.
package medicines

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Table names expected from a corpus source.
const (
	TableMedicines        = "medicines"
	TableGenericNames     = "generic_names"
	TableBrandNames       = "brand_names"
	TableManufacturers    = "manufacturers"
	TableForms            = "forms"
	TableSymptoms         = "symptoms"
	TableDiseases         = "diseases"
	TableMedicineGenerics = "medicine_generic_names"
	TableMedicineBrands   = "medicine_brands"
	TableMedicineSymptoms = "medicine_symptoms"
	TableMedicineDiseases = "medicine_diseases"
)

// TableSource provides the raw bytes of one named record collection.
// The on-disk layout is a source concern; the normalizer only sees records.
type TableSource interface {
	Load(table string) ([]byte, error)
}

// FileSource reads each table from <dir>/<table>.json.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (f *FileSource) Load(table string) ([]byte, error) {
	path := filepath.Join(f.dir, table+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", table, err)
	}
	return data, nil
}

// decodeTable parses one table into its raw row type. A missing or malformed
// table is fatal for the whole load, unlike a dangling row reference.
func decodeTable[T any](src TableSource, table string) ([]T, error) {
	data, err := src.Load(table)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding table %s: %w", table, err)
	}
	return rows, nil
}
