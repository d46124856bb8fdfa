package match

import (
	"sort"

	"github.com/sophialabs/testlabadvisor/internal/domain/component"
)

// NoSelection is the sentinel placed first in every selector domain.
const NoSelection = ""

// DistinctValues returns the sorted, deduplicated values of field within
// the given records, prefixed with the NoSelection sentinel.
func DistinctValues(field component.Field, within []component.Record) []string {
	seen := make(map[string]struct{}, len(within))
	values := make([]string, 0, len(within))
	for i := range within {
		v, ok := within[i].Value(field)
		if !ok || v == NoSelection {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{NoSelection}, values...)
}

// GroupStats are the recovery counters of one group.
type GroupStats struct {
	Key         string  `json:"key"`
	Total       int     `json:"total"`
	Recovered   int     `json:"recovered"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// Groups is an aggregation result in ascending key order.
type Groups []GroupStats

// Get returns the stats for key.
func (g Groups) Get(key string) (GroupStats, bool) {
	i := sort.Search(len(g), func(i int) bool { return g[i].Key >= key })
	if i < len(g) && g[i].Key == key {
		return g[i], true
	}
	return GroupStats{}, false
}

// AggregateByGroup counts recovered and failed records per distinct value
// of field. Records with an empty or missing value form the "" group.
func AggregateByGroup(field component.Field, within []component.Record) Groups {
	index := make(map[string]int)
	groups := make(Groups, 0)
	for i := range within {
		key, _ := within[i].Value(field)
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, GroupStats{Key: key})
		}
		groups[pos].Total++
		if within[i].IsRecovered() {
			groups[pos].Recovered++
		} else {
			groups[pos].Failed++
		}
	}
	for i := range groups {
		groups[i].SuccessRate = rate(groups[i].Recovered, groups[i].Total)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// TopN returns the first n records in dataset order.
func TopN(within []component.Record, n int) []component.Record {
	if n <= 0 {
		return []component.Record{}
	}
	if n > len(within) {
		n = len(within)
	}
	return within[:n:n]
}

// Rating labels an overall success rate.
type Rating string

const (
	RatingExcellent      Rating = "Excellent"
	RatingGood           Rating = "Good"
	RatingNeedsAttention Rating = "Needs Attention"
)

// RateOf maps a success rate percentage to its rating.
func RateOf(successRate float64) Rating {
	switch {
	case successRate > 80:
		return RatingExcellent
	case successRate > 60:
		return RatingGood
	default:
		return RatingNeedsAttention
	}
}

// Summary is the dataset-wide recovery overview.
type Summary struct {
	Total       int     `json:"total"`
	Recovered   int     `json:"recovered"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
	Rating      Rating  `json:"rating"`
}

// Summarize computes the overview for within.
func Summarize(within []component.Record) Summary {
	s := Summary{Total: len(within)}
	for i := range within {
		if within[i].IsRecovered() {
			s.Recovered++
		}
	}
	s.Failed = s.Total - s.Recovered
	s.SuccessRate = rate(s.Recovered, s.Total)
	s.Rating = RateOf(s.SuccessRate)
	return s
}

func rate(recovered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(recovered) / float64(total) * 100
}
