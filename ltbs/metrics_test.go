package ltbs

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStoreMetricsObserveMethodsDoNotPanic(t *testing.T) {
	m := NewStoreMetrics(t.Name(), zap.NewNop())
	assert.NotPanics(t, func() {
		m.observeResidentBytes(128)
		m.observeResidentTiles(2)
		m.observeEviction()
		m.observeLoad("disk", 0.01)
	})
}

func TestStoreWithMetricsTracksEvictionsAndLoads(t *testing.T) {
	path := tempPath(t, "metrics.lbf")
	m := NewStoreMetrics(t.Name(), zap.NewNop())
	s, err := Create(path, FormatGeneric8, 24, 8, WithTileDim(8), WithMemoryLimit(64), WithCreateMetrics(m))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, x := range []int{0, 8, 16} {
		if _, err := s.GetPixel(x, 0); err != nil {
			t.Fatal(err)
		}
	}

	// Three tile loads from disk; the one-tile budget evicts before the
	// second and third loads.
	var evictions, loads dto.Metric
	if err := m.evictions.Write(&evictions); err != nil {
		t.Fatal(err)
	}
	if err := m.tileLoads.WithLabelValues("disk").Write(&loads); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2.0, evictions.GetCounter().GetValue())
	assert.Equal(t, 3.0, loads.GetCounter().GetValue())
}
