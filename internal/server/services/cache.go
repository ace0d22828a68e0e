package services

import (
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gophmatch_application_cache_hits_total",
		Help: "Application lookups served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gophmatch_application_cache_misses_total",
		Help: "Application lookups that went to the ledger.",
	})
)

// applicationCache is an LRU of applications with a TTL. Only fields that
// never change after creation are meaningful in an entry; Active is read
// from the ledger on every hit. get returns a copy.
type applicationCache struct {
	lru *expirable.LRU[uint64, models.Application]
}

func newApplicationCache(size int, ttl time.Duration) *applicationCache {
	return &applicationCache{lru: expirable.NewLRU[uint64, models.Application](size, nil, ttl)}
}

func (c *applicationCache) get(id uint64) (*models.Application, bool) {
	if c == nil {
		return nil, false
	}
	app, ok := c.lru.Get(id)
	if !ok {
		cacheMissesTotal.Inc()
		return nil, false
	}
	cacheHitsTotal.Inc()
	return &app, true
}

func (c *applicationCache) add(app *models.Application) {
	if c != nil {
		c.lru.Add(app.ID, *app)
	}
}
