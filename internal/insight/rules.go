// Package insight evaluates threshold rules over a computed KPI set and
// returns recommendation messages. Rules are independent; output order is
// fixed by rule priority, not by evaluation order.
package insight

import (
	"fmt"
	"sort"

	"github.com/afuentes/mktpulse/internal/models"
)

// spendShareImbalance is how far a channel's spend share may exceed its
// revenue share before a rebalance message fires.
const spendShareImbalance = 0.15

type rule struct {
	priority int
	eval     func(s models.KPISet, facts []models.FactRow) []string
}

var rules = []rule{
	{priority: 10, eval: unprofitableChannels},
	{priority: 20, eval: cacAboveMargin},
	{priority: 30, eval: shareImbalance},
	{priority: 40, eval: orphanSpend},
	{priority: 50, eval: overAttribution},
}

// Generate runs every rule and returns the triggered messages in priority
// order. When no rule fires, a single steady-state message is returned
// instead of an empty list. No side effects.
func Generate(s models.KPISet, facts []models.FactRow) []string {
	sorted := make([]rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })

	var out []string
	for _, r := range sorted {
		out = append(out, r.eval(s, facts)...)
	}
	if len(out) == 0 {
		out = append(out, "No threshold breaches detected. Consider incrementality tests to find further upside.")
	}
	return out
}

func unprofitableChannels(s models.KPISet, _ []models.FactRow) []string {
	var msgs []string
	for _, c := range models.Channels {
		roas := s.RoasByChannel[c]
		if roas != nil && *roas < 1 {
			msgs = append(msgs, fmt.Sprintf("%s is unprofitable: ROAS %.2f returns less than a dollar per dollar spent.", c, *roas))
		}
	}
	return msgs
}

func cacAboveMargin(s models.KPISet, _ []models.FactRow) []string {
	if s.CAC == nil || s.GrossMarginPerOrder == nil {
		return nil
	}
	if *s.CAC <= *s.GrossMarginPerOrder {
		return nil
	}
	return []string{fmt.Sprintf("Acquisition cost exceeds per-order margin: CAC $%.2f vs $%.2f gross margin per order.", *s.CAC, *s.GrossMarginPerOrder)}
}

func shareImbalance(s models.KPISet, _ []models.FactRow) []string {
	var msgs []string
	for _, c := range models.Channels {
		spend := s.SpendShareByChannel[c]
		rev := s.RevenueShareByChannel[c]
		if spend == nil || rev == nil {
			continue
		}
		if *spend-*rev > spendShareImbalance {
			msgs = append(msgs, fmt.Sprintf("%s takes %.0f%% of spend but returns %.0f%% of attributed revenue; consider shifting budget.", c, *spend*100, *rev*100))
		}
	}
	return msgs
}

func orphanSpend(_ models.KPISet, facts []models.FactRow) []string {
	days := map[string]bool{}
	for _, row := range facts {
		if row.OrphanMarketingSpend {
			days[row.Day] = true
		}
	}
	if len(days) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("Marketing spend recorded on %d day(s) missing from the business export; reconcile the exports.", len(days))}
}

func overAttribution(s models.KPISet, _ []models.FactRow) []string {
	negative := 0
	for _, p := range s.AttributionGapByDate {
		if p.Value < 0 {
			negative++
		}
	}
	if negative == 0 {
		return nil
	}
	return []string{fmt.Sprintf("Channels over-attribute on %d day(s): attributed revenue exceeds reported business revenue.", negative)}
}
