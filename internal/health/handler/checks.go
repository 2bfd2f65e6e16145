// Package handler reports liveness and readiness over HTTP and the standard
// gRPC health protocol.
package handler

import (
	"context"
	"time"
)

// checkTimeout bounds each dependency ping.
const checkTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger is satisfied by loginsession.Store.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Checks pings the database and the login cache. Nil dependencies are skipped.
type Checks struct {
	DB    Pinger
	Cache CachePinger
}

// Run returns one entry per configured dependency: "ok" or the failure text.
// ready is false when any dependency failed.
func (c Checks) Run(ctx context.Context) (results map[string]string, ready bool) {
	results = make(map[string]string, 2)
	ready = true
	record := func(name string, ping func(context.Context) error) {
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		if err := ping(pingCtx); err != nil {
			results[name] = err.Error()
			ready = false
			return
		}
		results[name] = "ok"
	}
	if c.DB != nil {
		record("database", c.DB.PingContext)
	}
	if c.Cache != nil {
		record("cache", c.Cache.Ping)
	}
	return results, ready
}
