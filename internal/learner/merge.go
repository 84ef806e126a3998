package learner

import "sort"

// mergeKey groups recommendations the way spec §4.D's merge step does:
// "group by (kind, name); keep the highest-confidence entry".
type mergeKey struct {
	kind RecKind
	name string
}

// merge combines recommendations from all streams, keeping the
// highest-confidence entry per (kind, name) and its reason, then sorts
// by confidence descending and name ascending for deterministic
// tie-breaking (spec §4.D). Auto-activation is applied here, after
// merge, since a recommendation's confidence can only rise during
// merge — never computed per-stream.
func merge(autoActivateThreshold float64, streams ...[]Recommendation) []Recommendation {
	best := make(map[mergeKey]Recommendation)
	for _, stream := range streams {
		for _, rec := range stream {
			key := mergeKey{kind: rec.Kind, name: rec.Name}
			existing, ok := best[key]
			if !ok || rec.Confidence > existing.Confidence {
				best[key] = rec
			}
		}
	}

	out := make([]Recommendation, 0, len(best))
	for _, rec := range best {
		rec.AutoActivate = rec.Confidence >= autoActivateThreshold && rec.Kind == RecAgent && rec.Source != SourceLLM
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Name < out[j].Name
	})
	return out
}
