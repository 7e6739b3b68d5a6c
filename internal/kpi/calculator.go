// Package kpi derives the dashboard metric set from the fact table. All
// functions are total: a zero or absent denominator yields a nil metric,
// never an error, panic, or Inf.
package kpi

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/afuentes/mktpulse/internal/models"
)

type channelSums struct {
	present           bool
	spend             decimal.Decimal
	attributedRevenue decimal.Decimal
}

// Compute derives the full KPISet from an ordered fact table.
//
// The business side of a fact row repeats per channel within a date, so
// business sums fold once per distinct date. Null cells are excluded from
// every sum rather than coerced to zero.
func Compute(facts []models.FactRow) models.KPISet {
	perChannel := make(map[models.Channel]*channelSums)
	for _, c := range models.Channels {
		perChannel[c] = &channelSums{}
	}

	var totalSpend, totalAttrRev decimal.Decimal

	// Business metrics, folded per date.
	seenDates := make(map[time.Time]bool)
	var orders, newCustomers, totalRevenue, grossProfit decimal.Decimal

	// Attribution gap inputs per business date.
	revenueByDate := make(map[time.Time]decimal.Decimal)
	attributedByDate := make(map[time.Time]decimal.Decimal)

	for _, row := range facts {
		if row.Spend.Valid {
			totalSpend = totalSpend.Add(row.Spend.Decimal)
			if cs, ok := perChannel[row.Channel]; ok {
				cs.present = true
				cs.spend = cs.spend.Add(row.Spend.Decimal)
			}
		}
		if row.AttributedRevenue.Valid {
			totalAttrRev = totalAttrRev.Add(row.AttributedRevenue.Decimal)
			if cs, ok := perChannel[row.Channel]; ok {
				cs.attributedRevenue = cs.attributedRevenue.Add(row.AttributedRevenue.Decimal)
			}
			if row.TotalRevenue.Valid {
				attributedByDate[row.Date] = attributedByDate[row.Date].Add(row.AttributedRevenue.Decimal)
			}
		}
		if row.TotalRevenue.Valid && !seenDates[row.Date] {
			seenDates[row.Date] = true
			orders = orders.Add(row.Orders.Decimal)
			newCustomers = newCustomers.Add(row.NewCustomers.Decimal)
			totalRevenue = totalRevenue.Add(row.TotalRevenue.Decimal)
			grossProfit = grossProfit.Add(row.GrossProfit.Decimal)
			revenueByDate[row.Date] = row.TotalRevenue.Decimal
		}
	}

	set := models.KPISet{
		RoasByChannel:         make(map[models.Channel]*float64, len(models.Channels)),
		SpendShareByChannel:   make(map[models.Channel]*float64, len(models.Channels)),
		RevenueShareByChannel: make(map[models.Channel]*float64, len(models.Channels)),
		CAC:                   ratio(totalSpend, newCustomers),
		GrossMarginPerOrder:   ratio(grossProfit, orders),
		AttributionGapByDate:  gapSeries(revenueByDate, attributedByDate),
		Totals: models.Totals{
			Spend:             totalSpend.InexactFloat64(),
			AttributedRevenue: totalAttrRev.InexactFloat64(),
			TotalRevenue:      totalRevenue.InexactFloat64(),
			NewCustomers:      newCustomers.InexactFloat64(),
			BlendedROAS:       ratio(totalAttrRev, totalSpend),
		},
	}

	for _, c := range models.Channels {
		cs := perChannel[c]
		if !cs.present {
			// No rows for this channel at all: null contribution, which is
			// distinct from a present channel with zero spend.
			set.RoasByChannel[c] = nil
			set.SpendShareByChannel[c] = nil
			set.RevenueShareByChannel[c] = nil
			continue
		}
		set.RoasByChannel[c] = ratio(cs.attributedRevenue, cs.spend)
		set.SpendShareByChannel[c] = ratio(cs.spend, totalSpend)
		set.RevenueShareByChannel[c] = ratio(cs.attributedRevenue, totalAttrRev)
	}
	return set
}

// gapSeries builds the ordered attribution-gap sequence, one point per
// business date. A date with no marketing contributes gap = total revenue,
// and over-attribution (negative gap) is preserved, not clamped.
func gapSeries(revenueByDate, attributedByDate map[time.Time]decimal.Decimal) []models.DateValue {
	dates := make([]time.Time, 0, len(revenueByDate))
	for d := range revenueByDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]models.DateValue, 0, len(dates))
	for _, d := range dates {
		gap := revenueByDate[d].Sub(attributedByDate[d])
		out = append(out, models.DateValue{Date: models.DayKey(d), Value: gap.InexactFloat64()})
	}
	return out
}

func ratio(num, den decimal.Decimal) *float64 {
	if den.IsZero() {
		return nil
	}
	v := num.Div(den).InexactFloat64()
	return &v
}
