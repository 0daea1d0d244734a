package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourlyDataset(t *testing.T, hours ...int) (*Dataset, []Record) {
	t.Helper()
	recs := make([]Record, 0, len(hours))
	for _, h := range hours {
		raw := rawHour()
		raw.Hour = intPtr(h)
		rec, err := Normalize(Hourly, raw)
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	return NewDataset(Hourly, recs), recs
}

func TestDataset_RecordsCopyIsDetached(t *testing.T) {
	ds, _ := hourlyDataset(t, 5, 6)

	recs := ds.Records()
	*recs[0].Hour = 23
	recs[1].Total = 0

	assert.Equal(t, 5, *ds.At(0).Hour)
	assert.Equal(t, 16, ds.At(1).Total)
}

func TestDataset_AtCopyIsDetached(t *testing.T) {
	ds, _ := hourlyDataset(t, 5)

	rec := ds.At(0)
	*rec.Hour = 7

	assert.Equal(t, 5, *ds.At(0).Hour)
}

func TestNewDataset_DetachesInput(t *testing.T) {
	ds, input := hourlyDataset(t, 5)

	*input[0].Hour = 11
	input[0].Casual = 99

	assert.Equal(t, 5, *ds.At(0).Hour)
	assert.Equal(t, 3, ds.At(0).Casual)
}

func TestDataset_DailyRecordsHaveNoHour(t *testing.T) {
	rec, err := Normalize(Daily, rawDay())
	require.NoError(t, err)
	ds := NewDataset(Daily, []Record{rec})

	assert.Nil(t, ds.At(0).Hour)
	assert.Nil(t, ds.Records()[0].Hour)
	assert.Equal(t, Daily, ds.Granularity())
	assert.Equal(t, 1, ds.Len())
}
