package kpi

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/afuentes/mktpulse/internal/models"
)

// QueryFacts filters an already-ordered fact table for the /api/facts
// surface: optional channel set, optional from/to date range, limit/offset
// paging. The input order is preserved, so identical queries return
// identical pages.
func QueryFacts(facts []models.FactRow, v url.Values) []models.FactRow {
	chSet := channelSet(v.Get("channel"))
	from, fromOK := parseDay(v.Get("from"))
	to, toOK := parseDay(v.Get("to"))
	limit := atoiDef(v.Get("limit"), 0)
	offset := atoiDef(v.Get("offset"), 0)

	rows := make([]models.FactRow, 0, len(facts))
	for _, row := range facts {
		if len(chSet) > 0 {
			if _, ok := chSet[norm(string(row.Channel))]; !ok {
				continue
			}
		}
		if fromOK && row.Date.Before(from) {
			continue
		}
		if toOK && row.Date.After(to) {
			continue
		}
		rows = append(rows, row)
	}

	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return rows[offset : offset+limit]
}

// ParseChannelFilter resolves a comma-separated channel list into the
// selected channels, in stable order. An empty or all-unknown value selects
// every channel.
func ParseChannelFilter(raw string) []models.Channel {
	selected := map[models.Channel]bool{}
	for _, p := range strings.Split(raw, ",") {
		if c, ok := models.ParseChannel(strings.TrimSpace(p)); ok {
			selected[c] = true
		}
	}
	if len(selected) == 0 {
		return models.Channels
	}
	out := make([]models.Channel, 0, len(selected))
	for _, c := range models.Channels {
		if selected[c] {
			out = append(out, c)
		}
	}
	return out
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func channelSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return models.Day(t), true
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	if limit <= 0 || limit > n-offset {
		limit = n - offset
	}
	return limit, offset
}
