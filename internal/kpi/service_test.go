package kpi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afuentes/mktpulse/internal/models"
)

func factsFixture(t *testing.T) []models.FactRow {
	t.Helper()
	return build(t, []models.MarketingRecord{
		mkt("2024-01-01", models.ChannelFacebook, 10, 20),
		mkt("2024-01-01", models.ChannelGoogle, 10, 20),
		mkt("2024-01-02", models.ChannelFacebook, 10, 20),
		mkt("2024-01-03", models.ChannelTikTok, 10, 20),
	}, nil)
}

func TestQueryFactsChannelFilter(t *testing.T) {
	rows := QueryFacts(factsFixture(t), url.Values{"channel": {"facebook,TikTok"}})
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.NotEqual(t, models.ChannelGoogle, row.Channel)
	}
}

func TestQueryFactsDateRange(t *testing.T) {
	rows := QueryFacts(factsFixture(t), url.Values{"from": {"2024-01-02"}, "to": {"2024-01-02"}})
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-02", rows[0].Day)
}

func TestQueryFactsPagination(t *testing.T) {
	facts := factsFixture(t)

	page1 := QueryFacts(facts, url.Values{"limit": {"2"}})
	page2 := QueryFacts(facts, url.Values{"limit": {"2"}, "offset": {"2"}})
	require.Len(t, page1, 2)
	require.Len(t, page2, 2)
	assert.NotEqual(t, page1[0], page2[0])

	assert.Empty(t, QueryFacts(facts, url.Values{"offset": {"99"}}))
}

func TestParseChannelFilter(t *testing.T) {
	assert.Equal(t, models.Channels, ParseChannelFilter(""))
	assert.Equal(t, models.Channels, ParseChannelFilter("unknown"))
	assert.Equal(t, []models.Channel{models.ChannelFacebook, models.ChannelTikTok}, ParseChannelFilter("tiktok, Facebook"))
}
