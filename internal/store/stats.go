package store

import (
	"math"
	"sort"

	"github.com/haasonsaas/evaldeck/pkg/models"
)

// SortByRecency orders records by sort key descending, in place. Fixed-width
// sort keys make lexical order chronological, so no timestamp parsing is
// needed. The sort is stable: records sharing a sort key keep their scan
// order.
func SortByRecency(items []*models.EvaluationRecord) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SK > items[j].SK
	})
}

// ComputeStats derives summary statistics over the given set of records.
func ComputeStats(items []*models.EvaluationRecord) models.RecordStats {
	stats := models.RecordStats{TotalCount: len(items)}
	if len(items) == 0 {
		return stats
	}

	var sum int64
	queries := make(map[string]struct{}, len(items))
	for _, item := range items {
		sum += item.LatencyMs
		queries[item.Query] = struct{}{}
	}
	stats.AvgLatency = int64(math.Round(float64(sum) / float64(len(items))))
	stats.UniqueQueries = len(queries)
	return stats
}
