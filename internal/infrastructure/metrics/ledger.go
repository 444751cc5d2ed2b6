package metrics

import (
	"invoice-ledger/pkg/amount"

	"github.com/prometheus/client_golang/prometheus"
)

// Ledger counts business events. A nil *Ledger discards everything.
type Ledger struct {
	transitions *prometheus.CounterVec
	volume      *prometheus.CounterVec
	invoices    *prometheus.CounterVec
}

func NewLedger(reg prometheus.Registerer) (*Ledger, error) {
	m := &Ledger{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_loan_transitions_total",
			Help: "Loan state transitions by target state.",
		}, []string{"state"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_volume_base_units_total",
			Help: "Token volume moved by the ledger, by flow.",
		}, []string{"flow"}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_invoice_events_total",
			Help: "Invoice registry events by kind.",
		}, []string{"event"}),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.volume, m.invoices} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Ledger) LoanTransition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// Flow names: funded, disbursed, repaid, fee, pool_deposit.
func (m *Ledger) Volume(flow string, a amount.Amount) {
	if m == nil || a.IsZero() {
		return
	}
	m.volume.WithLabelValues(flow).Add(a.Float64())
}

func (m *Ledger) InvoiceEvent(event string) {
	if m == nil {
		return
	}
	m.invoices.WithLabelValues(event).Inc()
}
