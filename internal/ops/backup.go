package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/platform"
)

const backupDir = "/var/backups/vmfleet"

// Backupper archives a host's configuration tree over SSH.
type Backupper struct {
	logger zerolog.Logger
	remote Remote
}

func NewBackupper(logger zerolog.Logger, remote Remote) *Backupper {
	return &Backupper{
		logger: logger.With().Str("component", "backup").Logger(),
		remote: remote,
	}
}

// BackupConfig tars the configuration directory for the server's type into
// a timestamped archive on the host and returns the archive identifier.
func (b *Backupper) BackupConfig(ctx context.Context, server *model.Server) (string, error) {
	configDir := configDirFor(server.Type)
	backupID := fmt.Sprintf("%s-%s-%s", server.Name, time.Now().UTC().Format("20060102-150405"), platform.NewName(""))
	archive := fmt.Sprintf("%s/%s.tar.gz", backupDir, backupID)

	command := fmt.Sprintf("mkdir -p %s && tar czf %s %s", backupDir, archive, configDir)
	output, err := b.remote.Run(ctx, server, command)
	if err != nil {
		// tar exits non-zero on merely changed files too; only a missing
		// archive is a real failure.
		if _, statErr := b.remote.Run(ctx, server, "test -s "+archive); statErr != nil {
			return "", fmt.Errorf("archive %s on %s: %w (output: %s)", configDir, server.Name, err, strings.TrimSpace(output))
		}
	}

	b.logger.Info().Str("server", server.Name).Str("archive", archive).Msg("config backup written")
	return backupID, nil
}

func configDirFor(serverType string) string {
	switch serverType {
	case model.ServerTypePVE:
		return "/etc/pve"
	case model.ServerTypePBS:
		return "/etc/proxmox-backup"
	default:
		return "/etc"
	}
}
