package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func sampleEvent(phase Phase, current, total int) Event {
	return Event{
		RunID:       uuid.New(),
		Institution: "IFB",
		Phase:       phase,
		Current:     current,
		Total:       total,
		TS:          time.Now().UTC(),
	}
}

func TestMultiFansOutInOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	mk := func(name string) Observer {
		return ObserverFunc(func(Event) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		})
	}

	multi := Multi{mk("a"), nil, mk("b")}
	multi.Publish(sampleEvent(PhaseListing, 1, TotalUnknown))
	require.Equal(t, []string{"a", "b"}, order)
}

func TestPrometheusObserverSetsGauges(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver(reg)
	require.NoError(t, err)

	obs.Publish(sampleEvent(PhaseDetails, 7, 10))
	require.Equal(t, 7.0, testutil.ToFloat64(obs.current.WithLabelValues("IFB", "details")))
	require.Equal(t, 10.0, testutil.ToFloat64(obs.total.WithLabelValues("IFB", "details")))

	obs.Publish(sampleEvent(PhaseListing, 3, TotalUnknown))
	require.Equal(t, -1.0, testutil.ToFloat64(obs.total.WithLabelValues("IFB", "listing")))
}

func TestPrometheusObserverDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusObserver(reg)
	require.NoError(t, err)
	_, err = NewPrometheusObserver(reg)
	require.Error(t, err)
}
