// Package services contains the matching core: encrypted registration,
// application publishing, eligibility submission and the access list over
// result handles. Every state change runs as one ledger transition.
package services

import (
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/logging"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gophmatch_transitions_total",
		Help: "Ledger transitions by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	transitionsTotal.WithLabelValues(op, outcome).Inc()
}

// MatchService is the confidential eligibility matching core.
type MatchService struct {
	ledger   repomanager.Ledger
	fabric   fhe.Fabric
	contract fhe.Address
	logger   logging.Logger
	now      func() time.Time

	cache *applicationCache
}

var _ fhe.AccessList = (*MatchService)(nil)

type Option func(*MatchService)

// WithCache caches the immutable part of applications (creator, criteria)
// for ttl, keeping at most size entries. The active flag is never cached.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *MatchService) {
		if size > 0 {
			s.cache = newApplicationCache(size, ttl)
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *MatchService) { s.logger = l.With("module", "match") }
}

// NewMatchService builds the core over ledger and fabric. contract is the
// address input proofs must be bound to.
func NewMatchService(ledger repomanager.Ledger, fabric fhe.Fabric, contract fhe.Address, opts ...Option) *MatchService {
	s := &MatchService{
		ledger:   ledger,
		fabric:   fabric,
		contract: contract,
		logger:   logging.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Contract is the address input bundles must target.
func (s *MatchService) Contract() fhe.Address { return s.contract }
