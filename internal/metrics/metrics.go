package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotecalc",
		Name:      "store_writes_total",
		Help:      "Collections written to the primary store, by key and outcome.",
	}, []string{"key", "outcome"})

	CorruptReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotecalc",
		Name:      "store_corrupt_reads_total",
		Help:      "Stored documents that failed to decode and were replaced by defaults.",
	}, []string{"key"})

	HistoryOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotecalc",
		Name:      "history_operations_total",
		Help:      "Undo history operations, by kind.",
	}, []string{"op"})

	MirrorSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotecalc",
		Name:      "mirror_saves_total",
		Help:      "Directory mirror writes, by outcome.",
	}, []string{"outcome"})
)

// Outcome labels.
const (
	OK     = "ok"
	Failed = "failed"
)

// Outcome maps an error to its label.
func Outcome(err error) string {
	if err != nil {
		return Failed
	}
	return OK
}
