package promexport

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena/adaptive"
)

func newTestController(t *testing.T) *adaptive.Controller {
	t.Helper()
	c, err := adaptive.New(4096, &adaptive.Config{
		Now:         func() time.Time { return time.Unix(1000, 0) },
		Diagnostics: io.Discard,
	})
	require.NoError(t, err)
	c.EnableAdaptiveMode(false)
	return c
}

func TestCollector_Registers(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(newTestController(t))))
}

func TestCollector_GaugeValues(t *testing.T) {
	c := newTestController(t)
	_, err := c.Allocate(1024)
	require.NoError(t, err)

	col := NewCollector(c)

	expected := `
# HELP arenakit_free_bytes Total free memory in bytes
# TYPE arenakit_free_bytes gauge
arenakit_free_bytes 3072
# HELP arenakit_total_bytes Configured arena size in bytes
# TYPE arenakit_total_bytes gauge
arenakit_total_bytes 4096
# HELP arenakit_active_leaks Number of outstanding allocations
# TYPE arenakit_active_leaks gauge
arenakit_active_leaks 1
# HELP arenakit_leaked_bytes Bytes held by outstanding allocations
# TYPE arenakit_leaked_bytes gauge
arenakit_leaked_bytes 1024
`
	require.NoError(t, testutil.CollectAndCompare(col, strings.NewReader(expected),
		"arenakit_free_bytes", "arenakit_total_bytes",
		"arenakit_active_leaks", "arenakit_leaked_bytes"))
}

func TestCollector_PoolUtilizationLabels(t *testing.T) {
	c := newTestController(t)
	c.EnableAdaptiveMode(true)
	for i := 0; i < 110; i++ {
		_, err := c.Allocate(8)
		require.NoError(t, err)
	}
	require.NotEmpty(t, c.Pools(), "hot size should have earned a pool")

	col := NewCollector(c)
	count := testutil.CollectAndCount(col, "arenakit_pool_utilization")
	assert.Equal(t, len(c.Pools()), count)
}
