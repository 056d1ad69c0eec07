package debugger

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var sessionSeq atomic.Uint64

// metrics of one session. Every collector carries a "session" label so
// sessions sharing a registerer do not collide; they are unregistered on
// Close.
type metrics struct {
	reg           prometheus.Registerer
	modulesLoaded prometheus.Gauge
	moduleEvents  *prometheus.CounterVec
	storeOps      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, session string) (*metrics, error) {
	if session == "" {
		session = strconv.FormatUint(sessionSeq.Add(1), 10)
	}
	if reg != nil {
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"session": session}, reg)
	}
	m := &metrics{reg: reg}
	var err error
	if m.modulesLoaded, err = registerOrGet(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dbgmeta_modules_loaded",
		Help: "Number of modules currently loaded in the session.",
	})); err != nil {
		return nil, err
	}
	if m.moduleEvents, err = registerOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbgmeta_module_events_total",
		Help: "Module load and unload events applied to the registry.",
	}, []string{"event", "result"})); err != nil {
		return nil, err
	}
	if m.storeOps, err = registerOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbgmeta_store_operations_total",
		Help: "Mutating operations applied to annotation and range stores.",
	}, []string{"store", "op", "result"})); err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrGet[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if reg == nil {
		return c, nil
	}
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) unregister() {
	if m.reg == nil {
		return
	}
	m.reg.Unregister(m.modulesLoaded)
	m.reg.Unregister(m.moduleEvents)
	m.reg.Unregister(m.storeOps)
}

func (m *metrics) observe(store, op string, err error) {
	m.storeOps.WithLabelValues(store, op, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
