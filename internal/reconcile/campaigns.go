package reconcile

import (
	"sort"

	"github.com/afuentes/mktpulse/internal/models"
)

type campaignKey struct {
	channel  models.Channel
	campaign string
}

// Campaigns aggregates marketing records to (channel, campaign) with
// per-campaign CTR and ROAS, biggest spenders first. This sits beside the
// (date, channel) fact table: campaigns are rolled up there and broken out
// here.
func Campaigns(records []models.MarketingRecord) []models.CampaignRow {
	aggs := make(map[campaignKey]*marketingAgg)
	for _, r := range records {
		k := campaignKey{channel: r.Channel, campaign: r.Campaign}
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

	rows := make([]models.CampaignRow, 0, len(aggs))
	for k, a := range aggs {
		rows = append(rows, models.CampaignRow{
			Channel:           k.channel,
			Campaign:          k.campaign,
			Impressions:       a.impressions,
			Clicks:            a.clicks,
			Spend:             a.spend,
			AttributedRevenue: a.attributedRevenue,
			CTR:               safeRate(a.clicks, a.impressions),
			ROAS:              safeRate(a.attributedRevenue, a.spend),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Spend.Cmp(rows[j].Spend); c != 0 {
			return c > 0
		}
		if rows[i].Channel != rows[j].Channel {
			return rows[i].Channel < rows[j].Channel
		}
		return rows[i].Campaign < rows[j].Campaign
	})
	return rows
}
