package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_ledger_operations",
			Help: "Number of ledger operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	ledgerUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_ledger_units",
			Help: "Units moved by successful ledger operations",
		},
		[]string{"op"},
	)

	reorderAlerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_ledger_reorder_alerts",
			Help: "Number of reorder alerts raised",
		},
	)
)

func recordOperation(op string, units int64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	ledgerOperations.WithLabelValues(op, outcome).Inc()
	if err == nil && units > 0 {
		ledgerUnits.WithLabelValues(op).Add(float64(units))
	}
}

func init() {
	prometheus.MustRegister(ledgerOperations)
	prometheus.MustRegister(ledgerUnits)
	prometheus.MustRegister(reorderAlerts)
}
