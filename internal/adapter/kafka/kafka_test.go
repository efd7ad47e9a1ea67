package kafka

import (
	"context"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	loadedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	year := 2003
	capacity := 22500.0

	table := domain.Table{
		Source:    "GloHydroRes_vs1.csv",
		RefreshID: "refresh-abc",
		LoadedAt:  loadedAt,
	}
	plant := domain.Plant{
		ID:         "plant-11aabbcc",
		Country:    "China",
		ISO3:       "CHN",
		Name:       "Three Gorges",
		Year:       &year,
		CapacityMW: &capacity,
		Lat:        30.823,
		Lon:        111.003,
	}

	msg, err := serializeToMessage(table, plant)
	require.NoError(t, err)

	assert.Equal(t, []byte("plant-11aabbcc"), msg.Key)
	assert.Contains(t, string(msg.Value), `"iso3":"CHN"`)
	assert.Contains(t, string(msg.Value), `"capacity_mw":22500`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "refresh_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("refresh-abc"), msg.Headers[0].Value)
	assert.Equal(t, "loaded_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(loadedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_MissingFieldsAreNull(t *testing.T) {
	plant := domain.Plant{
		ID:      "plant-22ddeeff",
		Country: "Ruritania",
		Lat:     10.0,
		Lon:     20.0,
	}

	msg, err := serializeToMessage(domain.Table{RefreshID: "refresh-x"}, plant)
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"year":null`)
	assert.Contains(t, string(msg.Value), `"capacity_mw":null`)
	assert.Contains(t, string(msg.Value), `"res_vol_mcm":null`)
}

func TestWriter_PublishEmptyTable(t *testing.T) {
	// No broker needed: an empty table short-circuits before any write.
	w := &Writer{writer: &kafkago.Writer{}, logger: slog.Default()}

	err := w.Publish(context.Background(), domain.Table{RefreshID: "refresh-empty"})
	require.NoError(t, err)
}
