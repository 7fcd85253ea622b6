package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/vmfleet/internal/model"
)

const (
	nodeStatsInterval = 30 * time.Minute
	fleetScanInterval = 5 * time.Hour

	// statsCommand gathers everything one refresh needs in a single exec:
	// load average, core count, memory totals and uptime.
	statsCommand = `cat /proc/loadavg && nproc && free -b | awk 'NR==2 {print $2, $3}' && cat /proc/uptime`
)

// Tickers are the two interval loops that run independently of user-defined
// jobs: node stats refresh and the periodic whole-fleet scan.
type Tickers struct {
	logger  zerolog.Logger
	servers ServerStore
	stats   StatsStore
	remote  Remote
	scan    ScanHandler
}

func NewTickers(logger zerolog.Logger, servers ServerStore, stats StatsStore, remote Remote, scan ScanHandler) *Tickers {
	return &Tickers{
		logger:  logger.With().Str("component", "tickers").Logger(),
		servers: servers,
		stats:   stats,
		remote:  remote,
		scan:    scan,
	}
}

// Start launches both loops, each with one immediate pass so dashboards are
// populated without waiting for the first periodic tick.
func (t *Tickers) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		t.loop(ctx, nodeStatsInterval, "node_stats", t.RefreshNodeStats)
	}()
	go func() {
		defer wg.Done()
		t.loop(ctx, fleetScanInterval, "fleet_scan", t.RunFleetScan)
	}()
}

func (t *Tickers) loop(ctx context.Context, interval time.Duration, name string, pass func(context.Context)) {
	pass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pass(ctx)
		}
	}
}

// RefreshNodeStats collects CPU, RAM and uptime for every known host and
// upserts the stats cache. Hosts are processed independently: one host's
// SSH failure marks only that host offline and never blocks the rest.
func (t *Tickers) RefreshNodeStats(ctx context.Context) {
	servers, err := t.servers.List(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("node stats: failed to list servers")
		tickerRunsTotal.WithLabelValues("node_stats", "error").Inc()
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, server := range servers {
		server := server
		g.Go(func() error {
			t.refreshOne(gctx, &server)
			// Per-host failures are absorbed above; never fail the group.
			return nil
		})
	}
	g.Wait()

	tickerRunsTotal.WithLabelValues("node_stats", "ok").Inc()
}

func (t *Tickers) refreshOne(ctx context.Context, server *model.Server) {
	output, err := t.remote.Run(ctx, server, statsCommand)
	if err != nil {
		t.logger.Warn().Err(err).Str("server", server.Name).Msg("node stats: host unreachable")
		t.markOffline(ctx, server.ID)
		return
	}

	stats, err := parseNodeStats(output)
	if err != nil {
		t.logger.Warn().Err(err).Str("server", server.Name).Msg("node stats: unparseable output")
		t.markOffline(ctx, server.ID)
		return
	}

	stats.ServerID = server.ID
	stats.Status = model.NodeOnline
	stats.LastUpdated = time.Now().UTC()

	if err := t.stats.Upsert(ctx, stats); err != nil {
		t.logger.Error().Err(err).Str("server", server.Name).Msg("node stats: upsert failed")
	}
}

func (t *Tickers) markOffline(ctx context.Context, serverID string) {
	if err := t.stats.MarkOffline(ctx, serverID); err != nil {
		t.logger.Error().Err(err).Str("server_id", serverID).Msg("node stats: mark offline failed")
	}
}

// RunFleetScan invokes the whole-fleet scan handler. Errors are the
// handler's to record; the next tick is the retry.
func (t *Tickers) RunFleetScan(ctx context.Context) {
	t.scan.ScanEntireInfrastructure(ctx)
	tickerRunsTotal.WithLabelValues("fleet_scan", "ok").Inc()
}

// parseNodeStats interprets the output of statsCommand:
//
//	0.52 0.58 0.59 1/389 12345      <- /proc/loadavg
//	8                                <- nproc
//	33675976704 20409086721          <- free -b (total, used)
//	823543.22 6486731.32             <- /proc/uptime
func parseNodeStats(output string) (*model.NodeStats, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 4 {
		return nil, fmt.Errorf("expected 4 lines, got %d", len(lines))
	}

	loadFields := strings.Fields(lines[0])
	if len(loadFields) < 1 {
		return nil, fmt.Errorf("empty loadavg line")
	}
	load1, err := strconv.ParseFloat(loadFields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("parse load average %q: %w", loadFields[0], err)
	}

	cores, err := strconv.Atoi(strings.TrimSpace(lines[1]))
	if err != nil || cores <= 0 {
		return nil, fmt.Errorf("parse core count %q: %w", lines[1], err)
	}

	memFields := strings.Fields(lines[2])
	if len(memFields) < 2 {
		return nil, fmt.Errorf("unexpected memory line %q", lines[2])
	}
	ramTotal, err := strconv.ParseInt(memFields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse ram total %q: %w", memFields[0], err)
	}
	ramUsed, err := strconv.ParseInt(memFields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse ram used %q: %w", memFields[1], err)
	}

	uptimeFields := strings.Fields(lines[3])
	if len(uptimeFields) < 1 {
		return nil, fmt.Errorf("empty uptime line")
	}
	uptimeSecs, err := strconv.ParseFloat(uptimeFields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("parse uptime %q: %w", uptimeFields[0], err)
	}

	cpu := load1 / float64(cores) * 100
	if cpu > 100 {
		cpu = 100
	}

	var ramPct float64
	if ramTotal > 0 {
		ramPct = float64(ramUsed) / float64(ramTotal) * 100
	}

	return &model.NodeStats{
		CPU:      cpu,
		RAM:      ramPct,
		RAMUsed:  ramUsed,
		RAMTotal: ramTotal,
		Uptime:   formatUptime(time.Duration(uptimeSecs) * time.Second),
	}, nil
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
