// Package reconcile merges the per-channel marketing records and the
// business records into the unified fact table: one row per (date, channel),
// anchored on business dates, with marketing-only dates retained as orphan
// rows rather than dropped.
package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/afuentes/mktpulse/internal/models"
)

type aggKey struct {
	date    time.Time
	channel models.Channel
}

type marketingAgg struct {
	impressions       decimal.Decimal
	clicks            decimal.Decimal
	spend             decimal.Decimal
	attributedRevenue decimal.Decimal
}

// Build produces the ordered fact table. Campaigns are rolled up to
// (date, channel); the business source must be unique per date.
//
// Join semantics:
//   - every business date appears at least once, as an Unattributed row if
//     no channel spent that day;
//   - marketing rows on dates the business source does not know are kept
//     and flagged orphan, with a null business side.
func Build(marketing []models.MarketingRecord, business []models.BusinessRecord) ([]models.FactRow, error) {
	aggs := aggregateMarketing(marketing)

	byDate := make(map[time.Time]models.BusinessRecord, len(business))
	for _, b := range business {
		if _, dup := byDate[b.Date]; dup {
			return nil, &models.DuplicateDateError{Date: b.Date}
		}
		byDate[b.Date] = b
	}

	// Dates that carry marketing spend, grouped for the join.
	marketingDates := make(map[time.Time][]models.Channel)
	for k := range aggs {
		marketingDates[k.date] = append(marketingDates[k.date], k.channel)
	}

	var rows []models.FactRow
	for date, b := range byDate {
		channels := marketingDates[date]
		if len(channels) == 0 {
			rows = append(rows, businessOnlyRow(date, b))
			continue
		}
		for _, ch := range channels {
			rows = append(rows, joinedRow(date, ch, aggs[aggKey{date, ch}], b))
		}
	}
	for date, channels := range marketingDates {
		if _, ok := byDate[date]; ok {
			continue
		}
		for _, ch := range channels {
			rows = append(rows, orphanRow(date, ch, aggs[aggKey{date, ch}]))
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Channel < rows[j].Channel
	})
	return rows, nil
}

// aggregateMarketing rolls campaign rows up to (date, channel) sums.
func aggregateMarketing(records []models.MarketingRecord) map[aggKey]*marketingAgg {
	aggs := make(map[aggKey]*marketingAgg)
	for _, r := range records {
		k := aggKey{date: r.Date, channel: r.Channel}
		a, ok := aggs[k]
		if !ok {
			a = &marketingAgg{}
			aggs[k] = a
		}
		a.impressions = a.impressions.Add(r.Impressions)
		a.clicks = a.clicks.Add(r.Clicks)
		a.spend = a.spend.Add(r.Spend)
		a.attributedRevenue = a.attributedRevenue.Add(r.AttributedRevenue)
	}
	return aggs
}

func joinedRow(date time.Time, ch models.Channel, a *marketingAgg, b models.BusinessRecord) models.FactRow {
	row := models.FactRow{
		Date:              date,
		Day:               models.DayKey(date),
		Channel:           ch,
		Impressions:       models.Some(a.impressions),
		Clicks:            models.Some(a.clicks),
		Spend:             models.Some(a.spend),
		AttributedRevenue: models.Some(a.attributedRevenue),
		Orders:            models.Some(b.Orders),
		NewCustomers:      models.Some(b.NewCustomers),
		TotalRevenue:      models.Some(b.TotalRevenue),
		GrossProfit:       models.Some(b.GrossProfit),
	}
	fillRates(&row, a)
	return row
}

func businessOnlyRow(date time.Time, b models.BusinessRecord) models.FactRow {
	return models.FactRow{
		Date:         date,
		Day:          models.DayKey(date),
		Channel:      models.ChannelUnattributed,
		Orders:       models.Some(b.Orders),
		NewCustomers: models.Some(b.NewCustomers),
		TotalRevenue: models.Some(b.TotalRevenue),
		GrossProfit:  models.Some(b.GrossProfit),
	}
}

func orphanRow(date time.Time, ch models.Channel, a *marketingAgg) models.FactRow {
	row := models.FactRow{
		Date:                 date,
		Day:                  models.DayKey(date),
		Channel:              ch,
		Impressions:          models.Some(a.impressions),
		Clicks:               models.Some(a.clicks),
		Spend:                models.Some(a.spend),
		AttributedRevenue:    models.Some(a.attributedRevenue),
		OrphanMarketingSpend: true,
	}
	fillRates(&row, a)
	return row
}

func fillRates(row *models.FactRow, a *marketingAgg) {
	row.CTR = safeRate(a.clicks, a.impressions)
	row.CPC = safeRate(a.spend, a.clicks)
	row.ROAS = safeRate(a.attributedRevenue, a.spend)
}

// safeRate divides, returning nil instead of panicking or producing Inf on a
// zero denominator.
func safeRate(num, den decimal.Decimal) *float64 {
	if den.IsZero() {
		return nil
	}
	v := num.Div(den).InexactFloat64()
	return &v
}
