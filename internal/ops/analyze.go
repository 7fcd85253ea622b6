package ops

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/llm"
)

const analysisSystemPrompt = `You are a network engineer reviewing the interface and routing state of a virtualization host. Point out misconfigurations, asymmetries and risks. Be concise and concrete.`

// Analyzer collects a host's network state over SSH and asks the LLM for an
// assessment.
type Analyzer struct {
	logger  zerolog.Logger
	servers ServerLookup
	remote  Remote
	llm     *llm.Client
}

func NewAnalyzer(logger zerolog.Logger, servers ServerLookup, remote Remote, client *llm.Client) *Analyzer {
	return &Analyzer{
		logger:  logger.With().Str("component", "analyzer").Logger(),
		servers: servers,
		remote:  remote,
		llm:     client,
	}
}

// AnalyzeNetwork gathers interfaces, routes and bridge state from the host
// and returns the model's assessment text.
func (a *Analyzer) AnalyzeNetwork(ctx context.Context, serverID string) (string, error) {
	server, err := a.servers.GetByID(ctx, serverID)
	if err != nil {
		return "", fmt.Errorf("look up server %s: %w", serverID, err)
	}

	state, err := a.remote.Run(ctx, server, "ip addr && echo --- && ip route && echo --- && bridge link 2>/dev/null")
	if err != nil {
		return "", fmt.Errorf("collect network state from %s: %w", server.Name, err)
	}

	prompt := fmt.Sprintf("Host %s (%s):\n\n%s", server.Name, server.Type, state)
	result, err := a.llm.Complete(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("analyze network state of %s: %w", server.Name, err)
	}

	a.logger.Info().Str("server", server.Name).Int("chars", len(result)).Msg("network analysis complete")
	return result, nil
}
