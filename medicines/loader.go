package medicines

import (
	"context"

	"github.com/medinfo/medicines-api/index"
	"github.com/medinfo/medicines-api/medicines/entities"
	"github.com/medinfo/medicines-api/validation"
)

// Loader runs a full corpus load: normalize the tables, report data quality,
// embed the documents.
type Loader struct {
	source  TableSource
	builder *index.Builder
}

func NewLoader(source TableSource, builder *index.Builder) *Loader {
	return &Loader{source: source, builder: builder}
}

// LoadCorpus produces the medicine set and its document index. The result is
// complete or an error; a partially embedded corpus is never returned.
func (l *Loader) LoadCorpus(ctx context.Context) ([]entities.Medicine, *index.DocumentIndex, error) {
	medicines, err := Normalize(l.source)
	if err != nil {
		return nil, nil, err
	}

	validation.ReportQuality(medicines)

	idx, err := l.builder.Build(ctx, medicines)
	if err != nil {
		return nil, nil, err
	}

	return medicines, idx, nil
}
