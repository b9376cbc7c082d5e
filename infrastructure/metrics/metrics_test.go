package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
)

var _ ports.PortErrorReporter = (*Metrics)(nil)

func TestReportPortError(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReportPortError(entities.PortError{Switch: "10.0.0.1", Port: "Gi1/0/1", Err: entities.ErrPortParse})
	m.ReportPortError(entities.PortError{Switch: "10.0.0.1", Port: "Gi1/0/2", Err: entities.ErrPortParse})
	m.ReportPortError(entities.PortError{Switch: "10.0.0.2", Port: "", Err: entities.ErrPortParse})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.portParseErrors.WithLabelValues("10.0.0.1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.portParseErrors.WithLabelValues("10.0.0.2")))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest(entities.QueryShowAllConfig, nil)
	m.ObserveRequest(entities.QueryShowAllConfig, errors.New("timeout"))
	m.ObserveRequest(entities.QueryShowAllConfig, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(entities.QueryShowAllConfig, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(entities.QueryShowAllConfig, OutcomeError)))
}

func TestObserveCollection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCollection("10.0.0.1", 2*time.Second, nil)
	m.ObserveCollection("10.0.0.1", time.Second, errors.New("refused"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.collections.WithLabelValues("10.0.0.1", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collections.WithLabelValues("10.0.0.1", OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.collectDuration))
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
