package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies the marketing source a record came from. It is derived
// from source identity at load time, never read from a CSV column.
type Channel string

const (
	ChannelFacebook Channel = "Facebook"
	ChannelGoogle   Channel = "Google"
	ChannelTikTok   Channel = "TikTok"

	// ChannelUnattributed marks fact rows for business dates that have no
	// marketing spend on any channel.
	ChannelUnattributed Channel = "Unattributed"
)

// Channels lists the marketing channels in their stable output order.
var Channels = []Channel{ChannelFacebook, ChannelGoogle, ChannelTikTok}

// ParseChannel resolves a case-insensitive channel name. The second return
// is false for unknown names and for "Unattributed", which is not a
// selectable channel.
func ParseChannel(s string) (Channel, bool) {
	for _, c := range Channels {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// MarketingRecord is one normalized row of a channel export: one
// campaign/date combination. Immutable once produced by the normalizer.
type MarketingRecord struct {
	Date              time.Time
	Channel           Channel
	Campaign          string
	Impressions       decimal.Decimal
	Clicks            decimal.Decimal
	Spend             decimal.Decimal
	AttributedRevenue decimal.Decimal
}

// BusinessRecord is one normalized row of the business export, one per date.
type BusinessRecord struct {
	Date         time.Time
	Orders       decimal.Decimal
	NewOrders    decimal.Decimal
	NewCustomers decimal.Decimal
	TotalRevenue decimal.Decimal
	GrossProfit  decimal.Decimal
	COGS         decimal.Decimal
}

// FactRow is one reconciled (date, channel) row. The marketing side is null
// on Unattributed rows; the business side is null on orphan rows. Null is
// distinct from zero everywhere: aggregate sums skip nulls instead of
// zero-filling them.
type FactRow struct {
	Date    time.Time `json:"-"`
	Day     string    `json:"date"`
	Channel Channel   `json:"channel"`

	Impressions       decimal.NullDecimal `json:"impressions"`
	Clicks            decimal.NullDecimal `json:"clicks"`
	Spend             decimal.NullDecimal `json:"spend"`
	AttributedRevenue decimal.NullDecimal `json:"attributed_revenue"`

	Orders       decimal.NullDecimal `json:"orders"`
	NewCustomers decimal.NullDecimal `json:"new_customers"`
	TotalRevenue decimal.NullDecimal `json:"total_revenue"`
	GrossProfit  decimal.NullDecimal `json:"gross_profit"`

	OrphanMarketingSpend bool `json:"orphan_marketing_spend"`

	// Row-level rates, null when the denominator is zero or absent.
	CTR  *float64 `json:"ctr"`
	CPC  *float64 `json:"cpc"`
	ROAS *float64 `json:"roas"`
}

// CampaignRow is one (channel, campaign) aggregate for the campaign
// performance table. Sums are over normalized marketing records, so there is
// no null side here; the rates are null-safe like everywhere else.
type CampaignRow struct {
	Channel           Channel         `json:"channel"`
	Campaign          string          `json:"campaign"`
	Impressions       decimal.Decimal `json:"impressions"`
	Clicks            decimal.Decimal `json:"clicks"`
	Spend             decimal.Decimal `json:"spend"`
	AttributedRevenue decimal.Decimal `json:"attributed_revenue"`

	CTR  *float64 `json:"ctr"`
	ROAS *float64 `json:"roas"`
}

// DateValue is one point of the attribution-gap series.
type DateValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Totals are the headline card numbers of the dashboard.
type Totals struct {
	Spend             float64  `json:"spend"`
	AttributedRevenue float64  `json:"attributed_revenue"`
	TotalRevenue      float64  `json:"total_revenue"`
	NewCustomers      float64  `json:"new_customers"`
	BlendedROAS       *float64 `json:"blended_roas"`
}

// KPISet is the full derived metric set for one refresh. Ratio values are
// nil when their denominator sum is zero or absent; JSON renders them null
// and the page shows "N/A". Never persisted, recomputed per refresh.
type KPISet struct {
	RoasByChannel         map[Channel]*float64 `json:"roas_by_channel"`
	CAC                   *float64             `json:"cac"`
	GrossMarginPerOrder   *float64             `json:"gross_margin_per_order"`
	SpendShareByChannel   map[Channel]*float64 `json:"spend_share_by_channel"`
	RevenueShareByChannel map[Channel]*float64 `json:"revenue_share_by_channel"`
	AttributionGapByDate  []DateValue          `json:"attribution_gap_by_date"`
	Totals                Totals               `json:"totals"`
}

// Some wraps d as a valid NullDecimal.
func Some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Day truncates t to midnight UTC; all joins key on this.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats a join-key date for JSON and map keys.
func DayKey(t time.Time) string { return t.Format("2006-01-02") }
