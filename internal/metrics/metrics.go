package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"wallet-sync/internal/wallet"
)

const namespace = "wallet_sync"

// Result label values.
const (
	ResultOK    = "ok"
	ResultStale = "stale"
	ResultError = "error"
)

// Metrics groups the counters of one wallet client on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	syncs      *prometheus.CounterVec
	faucet     *prometheus.CounterVec
	payments   *prometheus.CounterVec
	recoveries *prometheus.CounterVec
	balance    prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syncs_total",
			Help:      "Sync attempts by mode that produced the state and result.",
		}, []string{"mode", "result"}),
		faucet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faucet_requests_total",
			Help:      "Faucet requests by funding source.",
		}, []string{"source"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Submitted payments by result.",
		}, []string{"result"}),
		recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoveries_total",
			Help:      "Wallet recoveries by result.",
		}, []string{"result"}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "confirmed_balance",
			Help:      "Confirmed balance after the last write.",
		}),
	}
	m.registry.MustRegister(m.syncs, m.faucet, m.payments, m.recoveries, m.balance)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSync counts a SyncOrRefresh outcome. A stale result still counts under its mode.
func (m *Metrics) ObserveSync(mode wallet.SyncMode, err error) {
	if mode == "" {
		mode = wallet.SyncFull
	}
	m.syncs.WithLabelValues(string(mode), result(err)).Inc()
}

// ObserveFaucet counts a faucet result. Deduplicated answers are counted as "cached".
func (m *Metrics) ObserveFaucet(res wallet.FundingResult, err error) {
	switch {
	case err != nil:
		m.faucet.WithLabelValues(ResultError).Inc()
	case res.Deduplicated:
		m.faucet.WithLabelValues("cached").Inc()
	default:
		m.faucet.WithLabelValues(string(res.Source)).Inc()
	}
}

func (m *Metrics) ObservePayment(err error) {
	m.payments.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveRecovery(err error) {
	m.recoveries.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) SetBalance(balance decimal.Decimal) {
	m.balance.Set(balance.InexactFloat64())
}

// Values flattens the gathered metrics into "name{label=value,...}" keys.
func (m *Metrics) Values() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			key := family.GetName()
			if labels := metric.GetLabel(); len(labels) > 0 {
				key += "{"
				for i, l := range labels {
					if i > 0 {
						key += ","
					}
					key += l.GetName() + "=" + l.GetValue()
				}
				key += "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[key] = metric.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, wallet.ErrStaleSync):
		return ResultStale
	default:
		return ResultError
	}
}
