package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Indexing counters, exposed when the CLI is started with --metrics-addr.
var (
	filesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codegraph_files_indexed_total",
		Help: "Files extracted and stored.",
	})
	nodesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codegraph_nodes_written_total",
		Help: "Graph nodes written to the store.",
	})
	indexErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codegraph_index_errors_total",
		Help: "Per-file indexing failures.",
	})
)
