package core

import (
	"context"
	"fmt"

	"github.com/edvin/vmfleet/internal/model"
)

// ServerService manages the host inventory.
type ServerService struct {
	db DB
}

func NewServerService(db DB) *ServerService {
	return &ServerService{db: db}
}

func (s *ServerService) Create(ctx context.Context, server *model.Server) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO servers (id, name, host, port, ssh_user, server_type, api_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		server.ID, server.Name, server.Host, server.Port, server.SSHUser,
		server.Type, server.APIToken, server.CreatedAt, server.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert server: %w", err)
	}
	return nil
}

func (s *ServerService) GetByID(ctx context.Context, id string) (*model.Server, error) {
	var srv model.Server
	err := s.db.QueryRow(ctx,
		`SELECT id, name, host, port, ssh_user, server_type, api_token, created_at, updated_at
		 FROM servers WHERE id = $1`, id,
	).Scan(&srv.ID, &srv.Name, &srv.Host, &srv.Port, &srv.SSHUser,
		&srv.Type, &srv.APIToken, &srv.CreatedAt, &srv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get server %s: %w", id, err)
	}
	return &srv, nil
}

func (s *ServerService) List(ctx context.Context) ([]model.Server, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, host, port, ssh_user, server_type, api_token, created_at, updated_at
		 FROM servers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	var servers []model.Server
	for rows.Next() {
		var srv model.Server
		if err := rows.Scan(&srv.ID, &srv.Name, &srv.Host, &srv.Port, &srv.SSHUser,
			&srv.Type, &srv.APIToken, &srv.CreatedAt, &srv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		servers = append(servers, srv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate servers: %w", err)
	}
	return servers, nil
}

func (s *ServerService) Update(ctx context.Context, server *model.Server) error {
	_, err := s.db.Exec(ctx,
		`UPDATE servers SET name = $1, host = $2, port = $3, ssh_user = $4, server_type = $5,
		 api_token = $6, updated_at = now() WHERE id = $7`,
		server.Name, server.Host, server.Port, server.SSHUser, server.Type,
		server.APIToken, server.ID,
	)
	if err != nil {
		return fmt.Errorf("update server %s: %w", server.ID, err)
	}
	return nil
}

func (s *ServerService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete server %s: %w", id, err)
	}
	return nil
}
