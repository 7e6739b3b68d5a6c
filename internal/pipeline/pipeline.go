// Package pipeline runs one dashboard refresh end to end:
// load -> normalize -> reconcile -> compute -> insights.
//
// A refresh is a pure function of the configured sources and the channel
// filter. Nothing is cached between calls; concurrent refreshes never share
// state.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/afuentes/mktpulse/internal/config"
	"github.com/afuentes/mktpulse/internal/insight"
	"github.com/afuentes/mktpulse/internal/kpi"
	"github.com/afuentes/mktpulse/internal/loader"
	"github.com/afuentes/mktpulse/internal/models"
	"github.com/afuentes/mktpulse/internal/reconcile"
	"github.com/afuentes/mktpulse/internal/schema"
	"github.com/afuentes/mktpulse/internal/telemetry"
)

// Source names one configured CSV input.
type Source struct {
	Name     string
	Channel  models.Channel
	Location string
}

// SourceStatus reports how one source fared during a refresh.
type SourceStatus struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Skipped bool   `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is everything one refresh produces. It does not outlive the
// request that asked for it.
type Snapshot struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Channels    []models.Channel     `json:"channels"`
	Facts       []models.FactRow     `json:"facts"`
	Campaigns   []models.CampaignRow `json:"campaigns"`
	KPIs        models.KPISet        `json:"kpis"`
	Insights    []string             `json:"insights"`
	Sources     []SourceStatus       `json:"sources"`
}

type Pipeline struct {
	ld        *loader.Loader
	log       *slog.Logger
	marketing []Source
	business  Source
}

func New(ld *loader.Loader, log *slog.Logger, cfg *config.Config) *Pipeline {
	return &Pipeline{
		ld:  ld,
		log: log,
		marketing: []Source{
			{Name: "facebook", Channel: models.ChannelFacebook, Location: cfg.FacebookSource},
			{Name: "google", Channel: models.ChannelGoogle, Location: cfg.GoogleSource},
			{Name: "tiktok", Channel: models.ChannelTikTok, Location: cfg.TikTokSource},
		},
		business: Source{Name: "business", Location: cfg.BusinessSource},
	}
}

// Refresh builds a fresh snapshot for the selected channels. The filter
// restricts marketing input before aggregation; the business source is
// never filtered.
//
// Per-source isolation: a missing, empty, or schema-broken marketing source
// is reported in Sources and skipped. The same goes for the business source
// (the dashboard then renders spend-side KPIs only). Duplicate business
// dates fail the refresh, since no fact table can be anchored on them.
func (p *Pipeline) Refresh(ctx context.Context, channels []models.Channel) (snap *Snapshot, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if snap != nil {
			rows = len(snap.Facts)
		}
		telemetry.ObserveRefresh(time.Since(start), rows, err)
	}()

	if len(channels) == 0 {
		channels = models.Channels
	}
	selected := make(map[models.Channel]bool, len(channels))
	for _, c := range channels {
		selected[c] = true
	}

	var statuses []SourceStatus
	var marketing []models.MarketingRecord
	for _, src := range p.marketing {
		if !selected[src.Channel] {
			continue
		}
		records, status := p.loadMarketing(ctx, src)
		statuses = append(statuses, status)
		marketing = append(marketing, records...)
	}

	business, bizStatus := p.loadBusiness(ctx)
	statuses = append(statuses, bizStatus)

	facts, err := reconcile.Build(marketing, business)
	if err != nil {
		p.log.Error("reconcile failed", slog.String("err", err.Error()))
		return nil, err
	}

	set := kpi.Compute(facts)
	snap = &Snapshot{
		GeneratedAt: time.Now().UTC(),
		Channels:    channels,
		Facts:       facts,
		Campaigns:   reconcile.Campaigns(marketing),
		KPIs:        set,
		Insights:    insight.Generate(set, facts),
		Sources:     statuses,
	}
	p.log.Info("refresh complete",
		slog.Int("fact_rows", len(facts)),
		slog.Int("marketing_rows", len(marketing)),
		slog.Int("business_rows", len(business)),
		slog.Duration("took", time.Since(start)))
	return snap, nil
}

func (p *Pipeline) loadMarketing(ctx context.Context, src Source) ([]models.MarketingRecord, SourceStatus) {
	table, err := p.ld.Load(ctx, src.Name, src.Location)
	if err != nil {
		return nil, p.skip(src.Name, err)
	}
	records, err := schema.NormalizeMarketing(table, src.Channel)
	if err != nil {
		return nil, p.skip(src.Name, err)
	}
	telemetry.ObserveSource(src.Name, len(records))
	return records, SourceStatus{Name: src.Name, Rows: len(records)}
}

func (p *Pipeline) loadBusiness(ctx context.Context) ([]models.BusinessRecord, SourceStatus) {
	table, err := p.ld.Load(ctx, p.business.Name, p.business.Location)
	if err != nil {
		return nil, p.skip(p.business.Name, err)
	}
	records, err := schema.NormalizeBusiness(table)
	if err != nil {
		return nil, p.skip(p.business.Name, err)
	}
	telemetry.ObserveSource(p.business.Name, len(records))
	return records, SourceStatus{Name: p.business.Name, Rows: len(records)}
}

func (p *Pipeline) skip(source string, err error) SourceStatus {
	var empty *models.EmptyInputError
	if errors.As(err, &empty) {
		p.log.Warn("source empty", slog.String("source", source))
	} else {
		p.log.Warn("source skipped", slog.String("source", source), slog.String("err", err.Error()))
	}
	return SourceStatus{Name: source, Skipped: true, Error: err.Error()}
}
