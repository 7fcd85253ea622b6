package model

import "time"

// Node online states for the stats cache.
const (
	NodeOnline  = "online"
	NodeOffline = "offline"
)

// NodeStats is the last-known resource snapshot for a host. One row per
// server, overwritten on each refresh.
type NodeStats struct {
	ServerID    string    `json:"server_id"`
	CPU         float64   `json:"cpu"`
	RAM         float64   `json:"ram"`
	RAMUsed     int64     `json:"ram_used"`
	RAMTotal    int64     `json:"ram_total"`
	Uptime      string    `json:"uptime"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}
