package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afuentes/mktpulse/internal/loader"
	"github.com/afuentes/mktpulse/internal/models"
)

func marketingTable(header []string, rows ...[]string) *loader.Table {
	return &loader.Table{Source: "facebook", Header: header, Rows: rows}
}

func TestNormalizeMarketing(t *testing.T) {
	table := marketingTable(
		[]string{"date", "campaign", "state", "impressions", "clicks", "spend", "attributed_revenue"},
		[]string{"2024-01-01", "brand", "CA", "1000", "50", "100.50", "300"},
		[]string{"2024-01-02", "brand", "CA", "", "", "25", "0"},
	)

	records, err := NormalizeMarketing(table, models.ChannelFacebook)
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, models.ChannelFacebook, r.Channel)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "brand", r.Campaign)
	assert.True(t, r.Spend.Equal(decimal.RequireFromString("100.50")))
	assert.True(t, r.AttributedRevenue.Equal(decimal.NewFromInt(300)))

	// Blank cells coerce to zero, not null: the column exists.
	assert.True(t, records[1].Impressions.IsZero())
	assert.True(t, records[1].Clicks.IsZero())
}

func TestNormalizeMarketingHeaderVariants(t *testing.T) {
	// Case-insensitive headers and the singular "impression" spelling.
	table := marketingTable(
		[]string{"Date", "Campaign", "Impression", "Clicks", "Spend", "Attributed_Revenue"},
		[]string{"2024-01-01", "x", "10", "1", "2", "3"},
	)
	records, err := NormalizeMarketing(table, models.ChannelTikTok)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Impressions.Equal(decimal.NewFromInt(10)))
}

func TestNormalizeMarketingMissingColumn(t *testing.T) {
	table := marketingTable(
		[]string{"date", "campaign", "impressions", "clicks", "attributed_revenue"},
		[]string{"2024-01-01", "x", "10", "1", "3"},
	)
	_, err := NormalizeMarketing(table, models.ChannelGoogle)

	var schemaErr *models.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "spend", schemaErr.Column)
	assert.Equal(t, "facebook", schemaErr.Source)
}

func TestNormalizeMarketingMalformedCells(t *testing.T) {
	table := marketingTable(
		[]string{"date", "campaign", "impressions", "clicks", "spend", "attributed_revenue"},
		[]string{"2024-01-01", "x", "n/a", "1", "1,250.75", "3"},
		[]string{"not-a-date", "x", "10", "1", "2", "3"},
	)
	records, err := NormalizeMarketing(table, models.ChannelFacebook)
	require.NoError(t, err)
	require.Len(t, records, 1, "rows with unparseable dates are dropped")
	assert.True(t, records[0].Impressions.IsZero(), "malformed numeric coerces to zero")
	assert.True(t, records[0].Spend.Equal(decimal.RequireFromString("1250.75")), "thousands separators stripped")
}

func TestNormalizeMarketingNoRows(t *testing.T) {
	table := marketingTable(
		[]string{"date", "campaign", "impressions", "clicks", "spend", "attributed_revenue"},
		[]string{"", "x", "1", "1", "1", "1"},
	)
	_, err := NormalizeMarketing(table, models.ChannelFacebook)

	var empty *models.EmptyInputError
	assert.ErrorAs(t, err, &empty)
}

func TestNormalizeBusiness(t *testing.T) {
	table := &loader.Table{
		Source: "business",
		Header: []string{"date", "orders", "new_orders", "new_customers", "total_revenue", "gross_profit", "COGS"},
		Rows: [][]string{
			{"2024-01-01", "10", "6", "5", "1000", "400", "600"},
		},
	}
	records, err := NormalizeBusiness(table)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].TotalRevenue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, records[0].COGS.Equal(decimal.NewFromInt(600)))
}

func TestNormalizeBusinessOrdersFallback(t *testing.T) {
	// Exports without an orders column use new_orders as the order count.
	table := &loader.Table{
		Source: "business",
		Header: []string{"date", "new_orders", "new_customers", "total_revenue", "gross_profit", "cogs"},
		Rows:   [][]string{{"2024-01-01", "6", "5", "1000", "400", "600"}},
	}
	records, err := NormalizeBusiness(table)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Orders.Equal(decimal.NewFromInt(6)))
	assert.True(t, records[0].NewOrders.Equal(decimal.NewFromInt(6)))
}

func TestNormalizeBusinessMissingColumn(t *testing.T) {
	table := &loader.Table{
		Source: "business",
		Header: []string{"date", "orders", "new_orders", "total_revenue", "gross_profit", "cogs"},
		Rows:   [][]string{{"2024-01-01", "10", "6", "1000", "400", "600"}},
	}
	_, err := NormalizeBusiness(table)

	var schemaErr *models.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "new_customers", schemaErr.Column)
}
