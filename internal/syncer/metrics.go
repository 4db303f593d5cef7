package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var syncRuns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "codegraph_sync_runs_total",
	Help: "Completed sync passes.",
})
