package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-guias-backend/internal/ledger"
)

var (
	// scansAdmitted counts admitted scans by classified carrier.
	scansAdmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_admitted_total",
			Help: "Total number of admitted scans.",
		},
		[]string{"carrier"},
	)

	// scansRejected counts rejected scans by reason.
	scansRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_rejected_total",
			Help: "Total number of rejected scans.",
		},
		[]string{"reason"},
	)

	// manifestPages counts rendered manifest pages by output format.
	manifestPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_pages_total",
			Help: "Total number of rendered manifest pages.",
		},
		[]string{"format"},
	)
)

func init() {
	prometheus.MustRegister(scansAdmitted, scansRejected, manifestPages)
}

// rejectReason maps an admission error to a bounded label value.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ledger.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "store_error"
	}
}
