package domain

import "sort"

// VenueUtilization is the deployed-to-target ratio for one venue.
type VenueUtilization struct {
	VenueID     string  `json:"venue_id"`
	Utilization float64 `json:"utilization"`
}

// UtilizationMetrics summarizes how closely current positions track a target
// allocation. Overall is the median of the per-venue ratios so one outlier
// venue does not skew the summary.
type UtilizationMetrics struct {
	Overall float64            `json:"overall"`
	ByVenue []VenueUtilization `json:"by_venue"`
}

// ComputeUtilization builds utilization metrics from current and target
// per-venue amounts. Venues with a zero target and a non-zero current amount
// report an infinite ratio via -1 (excluded from the median).
func ComputeUtilization(current, target map[string]float64) UtilizationMetrics {
	venues := make(map[string]struct{}, len(current)+len(target))
	for v := range current {
		venues[v] = struct{}{}
	}
	for v := range target {
		venues[v] = struct{}{}
	}

	m := UtilizationMetrics{ByVenue: make([]VenueUtilization, 0, len(venues))}
	ratios := make([]float64, 0, len(venues))

	for v := range venues {
		cur := current[v]
		tgt := target[v]

		var ratio float64
		switch {
		case tgt == 0 && cur == 0:
			ratio = 0
		case tgt == 0:
			ratio = -1 // no target, capital still deployed
		default:
			ratio = cur / tgt
			ratios = append(ratios, ratio)
		}
		m.ByVenue = append(m.ByVenue, VenueUtilization{VenueID: v, Utilization: ratio})
	}

	sort.Slice(m.ByVenue, func(i, j int) bool { return m.ByVenue[i].VenueID < m.ByVenue[j].VenueID })

	if len(ratios) == 0 {
		m.Overall = 1
		return m
	}
	sort.Float64s(ratios)
	mid := len(ratios) / 2
	if len(ratios)%2 == 1 {
		m.Overall = ratios[mid]
	} else {
		m.Overall = (ratios[mid-1] + ratios[mid]) / 2
	}
	return m
}
