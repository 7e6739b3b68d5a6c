package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afuentes/mktpulse/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return models.Day(t)
}

func mkt(d string, ch models.Channel, campaign string, spend, revenue int64) models.MarketingRecord {
	return models.MarketingRecord{
		Date:              day(d),
		Channel:           ch,
		Campaign:          campaign,
		Impressions:       decimal.NewFromInt(1000),
		Clicks:            decimal.NewFromInt(50),
		Spend:             decimal.NewFromInt(spend),
		AttributedRevenue: decimal.NewFromInt(revenue),
	}
}

func biz(d string, orders, newCustomers, revenue, profit int64) models.BusinessRecord {
	return models.BusinessRecord{
		Date:         day(d),
		Orders:       decimal.NewFromInt(orders),
		NewCustomers: decimal.NewFromInt(newCustomers),
		TotalRevenue: decimal.NewFromInt(revenue),
		GrossProfit:  decimal.NewFromInt(profit),
	}
}

func TestBuildRollsUpCampaigns(t *testing.T) {
	facts, err := Build([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelFacebook, "brand", 60, 100),
		mkt("2024-01-01", models.ChannelFacebook, "retargeting", 40, 200),
	}, []models.BusinessRecord{
		biz("2024-01-01", 10, 5, 1000, 400),
	})
	require.NoError(t, err)
	require.Len(t, facts, 1, "campaigns roll up to one (date, channel) row")

	row := facts[0]
	assert.True(t, row.Spend.Decimal.Equal(decimal.NewFromInt(100)))
	assert.True(t, row.AttributedRevenue.Decimal.Equal(decimal.NewFromInt(300)))
	assert.False(t, row.OrphanMarketingSpend)
	require.NotNil(t, row.ROAS)
	assert.InDelta(t, 3.0, *row.ROAS, 1e-9)
}

func TestBuildEveryBusinessDateAppears(t *testing.T) {
	facts, err := Build([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelGoogle, "x", 100, 250),
	}, []models.BusinessRecord{
		biz("2024-01-01", 10, 5, 1000, 400),
		biz("2024-01-02", 8, 3, 800, 320),
	})
	require.NoError(t, err)
	require.Len(t, facts, 2)

	// The spend-free date shows up as an Unattributed row with a null
	// marketing side, not a zero one.
	row := facts[1]
	assert.Equal(t, "2024-01-02", row.Day)
	assert.Equal(t, models.ChannelUnattributed, row.Channel)
	assert.False(t, row.Spend.Valid)
	assert.False(t, row.AttributedRevenue.Valid)
	assert.True(t, row.TotalRevenue.Valid)
	assert.Nil(t, row.ROAS)
}

func TestBuildRetainsOrphanMarketingSpend(t *testing.T) {
	// Scenario C: a marketing row for a date the business source does not
	// know is kept and flagged, never an error.
	facts, err := Build([]models.MarketingRecord{
		mkt("2024-01-05", models.ChannelTikTok, "x", 70, 90),
	}, nil)
	require.NoError(t, err)
	require.Len(t, facts, 1)

	row := facts[0]
	assert.True(t, row.OrphanMarketingSpend)
	assert.True(t, row.Spend.Valid)
	assert.False(t, row.Orders.Valid, "business side is null, not zero")
	assert.False(t, row.TotalRevenue.Valid)
}

func TestBuildDuplicateBusinessDate(t *testing.T) {
	_, err := Build(nil, []models.BusinessRecord{
		biz("2024-01-01", 10, 5, 1000, 400),
		biz("2024-01-01", 2, 1, 50, 10),
	})
	var dup *models.DuplicateDateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, day("2024-01-01"), dup.Date)
}

func TestBuildDeterministicOrder(t *testing.T) {
	marketing := []models.MarketingRecord{
		mkt("2024-01-02", models.ChannelTikTok, "x", 10, 10),
		mkt("2024-01-01", models.ChannelGoogle, "x", 10, 10),
		mkt("2024-01-01", models.ChannelFacebook, "x", 10, 10),
		mkt("2024-01-02", models.ChannelFacebook, "x", 10, 10),
	}
	business := []models.BusinessRecord{
		biz("2024-01-02", 1, 1, 100, 40),
		biz("2024-01-01", 1, 1, 100, 40),
	}

	first, err := Build(marketing, business)
	require.NoError(t, err)
	second, err := Build(marketing, business)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs reconcile identically")

	var got []string
	for _, row := range first {
		got = append(got, row.Day+"/"+string(row.Channel))
	}
	assert.Equal(t, []string{
		"2024-01-01/Facebook",
		"2024-01-01/Google",
		"2024-01-02/Facebook",
		"2024-01-02/TikTok",
	}, got)
}

func TestCampaignsAggregateAcrossDates(t *testing.T) {
	rows := Campaigns([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelFacebook, "brand", 60, 120),
		mkt("2024-01-02", models.ChannelFacebook, "brand", 40, 80),
		mkt("2024-01-01", models.ChannelGoogle, "search", 300, 450),
		mkt("2024-01-01", models.ChannelFacebook, "retargeting", 10, 90),
	})
	require.Len(t, rows, 3)

	// Biggest spenders first, the original table's sort.
	assert.Equal(t, "search", rows[0].Campaign)
	assert.Equal(t, "brand", rows[1].Campaign)
	assert.Equal(t, "retargeting", rows[2].Campaign)

	// brand rolls up across both dates.
	assert.True(t, rows[1].Spend.Equal(decimal.NewFromInt(100)))
	assert.True(t, rows[1].AttributedRevenue.Equal(decimal.NewFromInt(200)))
	require.NotNil(t, rows[1].ROAS)
	assert.InDelta(t, 2.0, *rows[1].ROAS, 1e-9)
	require.NotNil(t, rows[1].CTR)
	assert.InDelta(t, 0.05, *rows[1].CTR, 1e-9, "100 clicks over 2000 impressions")
}

func TestCampaignsZeroDenominators(t *testing.T) {
	rows := Campaigns([]models.MarketingRecord{
		{Date: day("2024-01-01"), Channel: models.ChannelTikTok, Campaign: "launch"},
	})
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].CTR)
	assert.Nil(t, rows[0].ROAS)
	assert.True(t, rows[0].Spend.IsZero())
}

func TestBuildZeroSpendIsNotNull(t *testing.T) {
	facts, err := Build([]models.MarketingRecord{
		{Date: day("2024-01-01"), Channel: models.ChannelFacebook, Campaign: "x"},
	}, []models.BusinessRecord{
		biz("2024-01-01", 1, 1, 100, 40),
	})
	require.NoError(t, err)
	require.Len(t, facts, 1)

	row := facts[0]
	assert.True(t, row.Spend.Valid, "a recorded zero is a value")
	assert.True(t, row.Spend.Decimal.IsZero())
	assert.Nil(t, row.ROAS, "zero spend yields a null rate, not Inf")
	assert.Nil(t, row.CTR)
	assert.Nil(t, row.CPC)
}
