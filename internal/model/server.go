package model

import "time"

// Server types.
const (
	ServerTypePVE   = "pve"
	ServerTypePBS   = "pbs"
	ServerTypeLinux = "linux"
)

// Server is a managed host: a hypervisor node, a backup server or a plain
// Linux machine.
type Server struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	SSHUser   string    `json:"ssh_user"`
	Type      string    `json:"type"`
	APIToken  *string   `json:"api_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
