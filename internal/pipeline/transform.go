package pipeline

import (
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
)

// RecordTransformer implements Transformer using the domain normalization.
type RecordTransformer struct{}

// NewTransformer creates a RecordTransformer.
func NewTransformer() *RecordTransformer {
	return &RecordTransformer{}
}

func (t *RecordTransformer) Transform(g domain.Granularity, raw domain.RawRecord) (domain.Record, error) {
	return domain.Normalize(g, raw)
}
