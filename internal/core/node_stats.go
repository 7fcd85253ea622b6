package core

import (
	"context"
	"fmt"

	"github.com/edvin/vmfleet/internal/model"
)

// NodeStatsService maintains the last-known resource snapshot per host.
// One row per server, overwritten on each refresh.
type NodeStatsService struct {
	db DB
}

func NewNodeStatsService(db DB) *NodeStatsService {
	return &NodeStatsService{db: db}
}

// Upsert writes a fresh online snapshot for a host.
func (s *NodeStatsService) Upsert(ctx context.Context, stats *model.NodeStats) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO node_stats (server_id, cpu, ram, ram_used, ram_total, uptime, status, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (server_id) DO UPDATE SET
			cpu = EXCLUDED.cpu,
			ram = EXCLUDED.ram,
			ram_used = EXCLUDED.ram_used,
			ram_total = EXCLUDED.ram_total,
			uptime = EXCLUDED.uptime,
			status = EXCLUDED.status,
			last_updated = EXCLUDED.last_updated`,
		stats.ServerID, stats.CPU, stats.RAM, stats.RAMUsed, stats.RAMTotal,
		stats.Uptime, stats.Status, stats.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert node stats for %s: %w", stats.ServerID, err)
	}
	return nil
}

// MarkOffline degrades a host's row to offline, leaving the stale numeric
// fields untouched so dashboards keep the last-known values.
func (s *NodeStatsService) MarkOffline(ctx context.Context, serverID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO node_stats (server_id, status, last_updated)
		VALUES ($1, 'offline', now())
		ON CONFLICT (server_id) DO UPDATE SET
			status = 'offline',
			last_updated = now()`,
		serverID)
	if err != nil {
		return fmt.Errorf("mark node %s offline: %w", serverID, err)
	}
	return nil
}

// List returns the cached stats for all hosts.
func (s *NodeStatsService) List(ctx context.Context) ([]model.NodeStats, error) {
	rows, err := s.db.Query(ctx,
		`SELECT server_id, cpu, ram, ram_used, ram_total, uptime, status, last_updated
		 FROM node_stats ORDER BY server_id`)
	if err != nil {
		return nil, fmt.Errorf("list node stats: %w", err)
	}
	defer rows.Close()

	var all []model.NodeStats
	for rows.Next() {
		var st model.NodeStats
		if err := rows.Scan(&st.ServerID, &st.CPU, &st.RAM, &st.RAMUsed,
			&st.RAMTotal, &st.Uptime, &st.Status, &st.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan node stats: %w", err)
		}
		all = append(all, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node stats: %w", err)
	}
	return all, nil
}
