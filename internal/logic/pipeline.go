package logic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/guildops/bench-api/internal/models"
	"github.com/guildops/bench-api/internal/roster"
)

// Prometheus metrics
var (
	nightsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bench_nights_computed_total",
		Help: "Total number of nights computed successfully",
	})

	nightsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bench_nights_skipped_total",
		Help: "Total number of nights skipped for missing data",
	})

	nightsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bench_nights_failed_total",
		Help: "Total number of nights that failed to compute",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bench_pipeline_run_duration_seconds",
		Help:    "Duration of full pipeline runs",
		Buckets: prometheus.DefBuckets,
	})
)

// Skip sentinels: the night produces no rows but the run goes on.
var (
	ErrNoEnvelope = errors.New("no hardest-tier fights")
	ErrNoPlayers  = errors.New("no roster players participated")
)

// EngineConfig carries every tunable of the attendance engine.
type EngineConfig struct {
	Break            BreakConfig
	GapBridgeMin     int64
	PostExtensionMin int64
	ResetDay         time.Weekday
	Forecast         ForecastConfig
}

// Pipeline runs the full attendance computation: per-night ledgers first,
// then week totals and rankings over the complete set. Nights are processed
// sequentially in ascending order; one night's failure never touches
// another night's rows.
type Pipeline struct {
	fights  FightStore
	config  ConfigStore
	results ResultStore
	cfg     EngineConfig
	logger  *zap.SugaredLogger
}

// NewPipeline wires a pipeline against its collaborators.
func NewPipeline(fights FightStore, config ConfigStore, results ResultStore, cfg EngineConfig, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fights:  fights,
		config:  config,
		results: results,
		cfg:     cfg,
		logger:  logger.Sugar(),
	}
}

// Run executes one full pass and reports the per-night outcomes.
func (p *Pipeline) Run(ctx context.Context) (*models.RunResult, error) {
	started := time.Now()
	result := &models.RunResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}
	defer func() {
		result.Duration = time.Since(started)
		runDuration.Observe(result.Duration.Seconds())
	}()

	entries, err := p.config.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	aliases, err := p.config.Aliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}
	availOverrides, err := p.config.AvailabilityOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("load availability overrides: %w", err)
	}
	nightOverrides, err := p.config.NightOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("load night overrides: %w", err)
	}

	nights, err := p.fights.Nights(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nights: %w", err)
	}
	sort.Strings(nights)

	mains := make([]string, 0, len(entries))
	for _, e := range entries {
		mains = append(mains, e.Main)
	}
	altToMain := make(map[string]string, len(aliases))
	for _, a := range aliases {
		altToMain[a.Alt] = a.Main
	}

	for _, nightID := range nights {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Each night gets a fresh resolver so unresolved-name diagnostics
		// stay per-night.
		res := roster.NewResolver(mains, altToMain)

		night, err := p.computeNight(ctx, nightID, nightOverrides[nightID], availOverrides, res, entries)
		switch {
		case errors.Is(err, ErrNoEnvelope), errors.Is(err, ErrNoPlayers):
			nightsSkipped.Inc()
			p.logger.Infow("night skipped", "night_id", nightID, "reason", err.Error())
			result.Nights = append(result.Nights, models.NightResult{
				NightID: nightID, Status: models.NightSkipped, Reason: err.Error(),
			})
			continue
		case err != nil:
			nightsFailed.Inc()
			p.logger.Errorw("night failed", "night_id", nightID, "error", err)
			result.Nights = append(result.Nights, models.NightResult{
				NightID: nightID, Status: models.NightFailed, Reason: err.Error(),
			})
			continue
		}

		if err := p.results.ReplaceNight(ctx, night.summary, night.totals); err != nil {
			nightsFailed.Inc()
			p.logger.Errorw("night persist failed", "night_id", nightID, "error", err)
			result.Nights = append(result.Nights, models.NightResult{
				NightID: nightID, Status: models.NightFailed, Reason: err.Error(),
			})
			continue
		}

		nightsComputed.Inc()
		p.logger.Infow("night computed",
			"night_id", nightID,
			"players", len(night.totals),
			"pre_min", night.summary.PreMin,
			"post_min", night.summary.PostMin,
			"not_on_roster", len(night.summary.NotOnRoster),
		)
		result.Nights = append(result.Nights, models.NightResult{
			NightID: nightID, Status: models.NightComputed, Players: len(night.totals),
		})
	}

	// Week totals and rankings read the full stored set: nights outside
	// this run's scope still count toward the season.
	allTotals, err := p.results.NightTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load night totals: %w", err)
	}
	weekTotals, err := WeekTotals(allTotals, entries, p.cfg.ResetDay)
	if err != nil {
		return nil, fmt.Errorf("aggregate weeks: %w", err)
	}
	if err := p.results.ReplaceWeekTotals(ctx, weekTotals); err != nil {
		return nil, fmt.Errorf("persist week totals: %w", err)
	}
	result.WeekRows = len(weekTotals)

	rankings := Rankings(weekTotals, entries)
	if err := p.results.ReplaceRankings(ctx, rankings); err != nil {
		return nil, fmt.Errorf("persist rankings: %w", err)
	}
	result.RankedRows = len(rankings)

	p.logger.Infow("pipeline run complete",
		"run_id", result.RunID,
		"nights", len(result.Nights),
		"computed", result.Computed(),
		"week_rows", result.WeekRows,
		"ranked_rows", result.RankedRows,
		"duration", time.Since(started),
	)
	return result, nil
}

type nightOutput struct {
	summary models.NightSummary
	totals  []models.BenchNightTotal
}

func (p *Pipeline) computeNight(
	ctx context.Context,
	nightID string,
	override models.NightOverride,
	availOverrides []models.AvailabilityOverride,
	res *roster.Resolver,
	entries []models.RosterEntry,
) (*nightOutput, error) {
	fights, err := p.fights.FightsForNight(ctx, nightID)
	if err != nil {
		return nil, fmt.Errorf("load fights: %w", err)
	}

	env := Envelope(fights)
	env, envOverridden, err := ApplyEnvelopeOverride(env, override.Envelope)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, ErrNoEnvelope
	}

	brk, brkOverridden, diag, err := ResolveBreak(fights, p.cfg.Break, override.Break)
	if err != nil {
		return nil, err
	}

	hardest := make([]models.Fight, 0, len(fights))
	for _, f := range fights {
		if f.IsHardest() {
			hardest = append(hardest, f)
		}
	}
	sort.Slice(hardest, func(i, j int) bool { return hardest[i].StartMs < hardest[j].StartMs })

	// Envelope minutes outside any logged pull are credited to the pull
	// that borders them; the configured post extension goes to whoever was
	// in the first pull after the break.
	var preCreditMs, postEnvCreditMs, postExtMs int64
	var firstPull, lastPull, firstAfterBreak map[string]struct{}
	if len(hardest) > 0 {
		first := hardest[0]
		lastEnd := int64(0)
		var last models.Fight
		for _, f := range hardest {
			if f.EndMs > lastEnd {
				lastEnd = f.EndMs
				last = f
			}
		}
		preCreditMs = max64(0, first.StartMs-env.StartMs)
		postEnvCreditMs = max64(0, env.EndMs-lastEnd)
		firstPull = resolveSet(res, first.Participants)
		lastPull = resolveSet(res, last.Participants)
		if brk != nil {
			for _, f := range hardest {
				if f.StartMs >= brk.EndMs {
					firstAfterBreak = resolveSet(res, f.Participants)
					break
				}
			}
		}
	}
	if brk != nil {
		postExtMs = p.cfg.PostExtensionMin*60000 + postEnvCreditMs
	}

	split := SplitPrePost(*env, brk, postExtMs)

	participation, unresolvedSeen := buildParticipation(nightID, hardest, res)
	if len(participation) == 0 && !unresolvedSeen {
		return nil, ErrNoPlayers
	}

	blocks := BuildBlocks(participation, brk, p.cfg.GapBridgeMin*60000)

	// Boundary pulls, any difficulty: the last one ending before the break
	// and the first one starting after it.
	preBoundary, postBoundary := boundaryPulls(fights, brk, res)

	credits := make(map[string]Credit)
	addCredit := func(set map[string]struct{}, c Credit) {
		for player := range set {
			cur := credits[player]
			cur.PreMs += c.PreMs
			cur.PostMs += c.PostMs
			credits[player] = cur
		}
	}
	addCredit(firstPull, Credit{PreMs: preCreditMs})
	if brk != nil {
		addCredit(lastPull, Credit{PostMs: postEnvCreditMs})
		addCredit(firstAfterBreak, Credit{PostMs: p.cfg.PostExtensionMin * 60000})
	} else {
		// Without a break the whole envelope is the pre half.
		addCredit(lastPull, Credit{PreMs: postEnvCreditMs})
	}

	overrides := resolveOverrides(nightID, availOverrides, res)

	totals := BenchForNight(BenchInput{
		NightID:      nightID,
		Blocks:       blocks,
		Split:        split,
		Overrides:    overrides,
		PreBoundary:  preBoundary,
		PostBoundary: postBoundary,
		Credits:      credits,
	})

	// Membership windows gate the ledger: players outside their window do
	// not get rows even when the logs saw them.
	totals = filterByMembership(nightID, totals, entries)
	if len(totals) == 0 {
		return nil, ErrNoPlayers
	}

	summary := models.NightSummary{
		NightID:          nightID,
		EnvelopeStartMs:  env.StartMs,
		EnvelopeEndMs:    env.EndMs,
		PreMin:           split.PreMin(),
		PostMin:          split.PostMin(),
		PostExtensionMin: float64(postExtMs) / 60000.0,
		OverrideUsed:     envOverridden || brkOverridden,
		LargestGapMin:    diag.LargestGapMin,
		GapCandidates:    diag.Candidates,
	}
	if brk != nil {
		summary.BreakStartMs = &brk.StartMs
		summary.BreakEndMs = &brk.EndMs
	}
	unresolved := res.Unresolved()
	sort.Strings(unresolved)
	summary.NotOnRoster = unresolved

	return &nightOutput{summary: summary, totals: totals}, nil
}

func buildParticipation(nightID string, hardest []models.Fight, res *roster.Resolver) ([]models.Participation, bool) {
	type rowKey struct {
		report string
		fight  int
		player string
	}
	seen := make(map[rowKey]struct{})
	var rows []models.Participation
	unresolved := false
	for _, f := range hardest {
		for _, name := range f.Participants {
			player, ok := res.Resolve(name)
			if !ok {
				unresolved = true
				continue
			}
			k := rowKey{report: f.ReportCode, fight: f.FightID, player: player}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			rows = append(rows, models.Participation{
				Player:     player,
				NightID:    nightID,
				ReportCode: f.ReportCode,
				FightID:    f.FightID,
				StartMs:    f.StartMs,
				EndMs:      f.EndMs,
			})
		}
	}
	return rows, unresolved
}

func boundaryPulls(fights []models.Fight, brk *models.Interval, res *roster.Resolver) (pre, post map[string]struct{}) {
	if brk == nil {
		return nil, nil
	}
	sorted := make([]models.Fight, len(fights))
	copy(sorted, fights)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMs < sorted[j].StartMs })

	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].EndMs <= brk.StartMs {
			pre = resolveSet(res, sorted[i].Participants)
			break
		}
	}
	for _, f := range sorted {
		if f.StartMs >= brk.EndMs {
			post = resolveSet(res, f.Participants)
			break
		}
	}
	return pre, post
}

func resolveSet(res *roster.Resolver, names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		if player, ok := res.Resolve(name); ok {
			out[player] = struct{}{}
		}
	}
	return out
}

func resolveOverrides(nightID string, overrides []models.AvailabilityOverride, res *roster.Resolver) []models.AvailabilityOverride {
	var out []models.AvailabilityOverride
	for _, ov := range overrides {
		if ov.NightID != nightID {
			continue
		}
		player, ok := res.Resolve(ov.Player)
		if !ok {
			continue
		}
		ov.Player = player
		out = append(out, ov)
	}
	return out
}

func filterByMembership(nightID string, totals []models.BenchNightTotal, entries []models.RosterEntry) []models.BenchNightTotal {
	// Roster mains are stored realm-qualified while ledger rows use display
	// names; index both forms.
	byMain := make(map[string]*models.RosterEntry, len(entries))
	display := make(map[string]*models.RosterEntry, len(entries))
	for i := range entries {
		e := &entries[i]
		byMain[e.Main] = e
		d := roster.Shorten(e.Main)
		if _, dup := display[d]; !dup {
			display[d] = e
		}
	}

	out := totals[:0]
	for _, t := range totals {
		e, ok := byMain[t.Player]
		if !ok {
			e, ok = display[t.Player]
		}
		if !ok {
			// No roster entry means always-active.
			out = append(out, t)
			continue
		}
		if e.WindowContains(nightID) {
			out = append(out, t)
		}
	}
	return out
}
