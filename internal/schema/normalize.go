// Package schema validates and coerces raw CSV tables into typed records.
// Pure transforms: headers are matched case-insensitively, dates are coerced
// to day-granularity UTC, numeric cells are coerced with blank/malformed
// values treated as zero (nulls only ever arise later, from the join).
package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/afuentes/mktpulse/internal/loader"
	"github.com/afuentes/mktpulse/internal/models"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

type columns map[string]int

func indexColumns(header []string) columns {
	c := make(columns, len(header))
	for i, h := range header {
		c[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return c
}

func (c columns) cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// require returns the first listed alias present in the header, or a
// SchemaError naming the primary alias.
func (c columns) require(source string, aliases ...string) (string, error) {
	for _, a := range aliases {
		if _, ok := c[a]; ok {
			return a, nil
		}
	}
	return "", &models.SchemaError{Source: source, Column: aliases[0]}
}

// NormalizeMarketing coerces one channel export. The channel comes from
// source identity, not from a column. Rows with unparseable dates are
// dropped, matching the upstream exports where a blank date means a footer
// or summary line.
func NormalizeMarketing(t *loader.Table, ch models.Channel) ([]models.MarketingRecord, error) {
	cols := indexColumns(t.Header)
	dateCol, err := cols.require(t.Source, "date")
	if err != nil {
		return nil, err
	}
	if _, err := cols.require(t.Source, "campaign"); err != nil {
		return nil, err
	}
	// Upstream exports disagree on the plural.
	imprCol, err := cols.require(t.Source, "impressions", "impression")
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"clicks", "spend", "attributed_revenue"} {
		if _, err := cols.require(t.Source, name); err != nil {
			return nil, err
		}
	}

	out := make([]models.MarketingRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		d, ok := parseDate(cols.cell(row, dateCol))
		if !ok {
			continue
		}
		out = append(out, models.MarketingRecord{
			Date:              d,
			Channel:           ch,
			Campaign:          cols.cell(row, "campaign"),
			Impressions:       parseNumber(cols.cell(row, imprCol)),
			Clicks:            parseNumber(cols.cell(row, "clicks")),
			Spend:             parseNumber(cols.cell(row, "spend")),
			AttributedRevenue: parseNumber(cols.cell(row, "attributed_revenue")),
		})
	}
	if len(out) == 0 {
		return nil, &models.EmptyInputError{Source: t.Source}
	}
	return out, nil
}

// NormalizeBusiness coerces the business export. Date uniqueness is the
// reconciliation engine's concern, not checked here.
func NormalizeBusiness(t *loader.Table) ([]models.BusinessRecord, error) {
	cols := indexColumns(t.Header)
	dateCol, err := cols.require(t.Source, "date")
	if err != nil {
		return nil, err
	}
	// Some business exports only carry new_orders; fall back to it for the
	// order count when the orders column is absent.
	ordersCol, err := cols.require(t.Source, "orders", "new_orders")
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"new_orders", "new_customers", "total_revenue", "gross_profit", "cogs"} {
		if _, err := cols.require(t.Source, name); err != nil {
			return nil, err
		}
	}

	out := make([]models.BusinessRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		d, ok := parseDate(cols.cell(row, dateCol))
		if !ok {
			continue
		}
		out = append(out, models.BusinessRecord{
			Date:         d,
			Orders:       parseNumber(cols.cell(row, ordersCol)),
			NewOrders:    parseNumber(cols.cell(row, "new_orders")),
			NewCustomers: parseNumber(cols.cell(row, "new_customers")),
			TotalRevenue: parseNumber(cols.cell(row, "total_revenue")),
			GrossProfit:  parseNumber(cols.cell(row, "gross_profit")),
			COGS:         parseNumber(cols.cell(row, "cogs")),
		})
	}
	if len(out) == 0 {
		return nil, &models.EmptyInputError{Source: t.Source}
	}
	return out, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Day(t), true
		}
	}
	return time.Time{}, false
}

// parseNumber coerces a cell to a decimal. Blank and malformed cells become
// zero; the column being present is what matters, a missing value inside it
// is a zero quantity.
func parseNumber(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
