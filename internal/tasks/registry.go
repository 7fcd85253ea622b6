package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/model"
)

var (
	// ErrInvalidTaskID marks a task id that is not "<source>-<rawId>" with
	// a known source.
	ErrInvalidTaskID = errors.New("invalid task id")
	// ErrNotRunning marks a cancel request for a task that is not in the
	// running state (or does not exist).
	ErrNotRunning = errors.New("task not running or not found")
)

// Registry presents job history, migration tasks and background tasks as
// one paginated, filterable, cancellable task list. It is a pure read-side
// composition: every List recomputes the view from the sources.
type Registry struct {
	logger  zerolog.Logger
	sources []Source
}

func NewRegistry(logger zerolog.Logger, sources ...Source) *Registry {
	return &Registry{
		logger:  logger.With().Str("component", "task-registry").Logger(),
		sources: sources,
	}
}

// ListResult is one page of the unified task view.
type ListResult struct {
	Items   []model.TaskItem `json:"items"`
	Total   int              `json:"total"`
	HasMore bool             `json:"has_more"`
}

// ListTasks merges all sources newest-first, applies the optional type and
// status filters in application code, and paginates. Total counts the
// matching rows independent of pagination.
func (r *Registry) ListTasks(ctx context.Context, limit, offset int, filterType, filterStatus string) (*ListResult, error) {
	var merged []model.TaskItem
	for _, src := range r.sources {
		items, err := src.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s tasks: %w", src.Name(), err)
		}
		merged = append(merged, items...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartedAt.After(merged[j].StartedAt)
	})

	total := len(merged)
	if filterType == "" && filterStatus == "" {
		// The cheap per-table counts must agree with the merged length;
		// prefer them so total stays consistent with what the stores report.
		if counted, err := r.countAll(ctx); err == nil {
			total = counted
		}
	} else {
		filtered := merged[:0]
		for _, item := range merged {
			if filterType != "" && item.Type != filterType {
				continue
			}
			if filterStatus != "" && item.Status != filterStatus {
				continue
			}
			filtered = append(filtered, item)
		}
		merged = filtered
		total = len(merged)
	}

	if offset > len(merged) {
		offset = len(merged)
	}
	end := offset + limit
	if limit <= 0 || end > len(merged) {
		end = len(merged)
	}
	page := merged[offset:end]

	return &ListResult{
		Items:   page,
		Total:   total,
		HasMore: offset+len(page) < total,
	}, nil
}

func (r *Registry) countAll(ctx context.Context) (int, error) {
	var total int
	for _, src := range r.sources {
		n, err := src.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("count %s tasks: %w", src.Name(), err)
		}
		total += n
	}
	return total, nil
}

// CancelTask splits the unified id and asks the owning source for a
// conditional cancel. A task that already reached a terminal state is left
// untouched and reported as ErrNotRunning.
func (r *Registry) CancelTask(ctx context.Context, id string) error {
	source, rawID, ok := strings.Cut(id, "-")
	if !ok || rawID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidTaskID, id)
	}

	for _, src := range r.sources {
		if src.Name() != source {
			continue
		}
		cancelled, err := src.Cancel(ctx, rawID)
		if err != nil {
			return fmt.Errorf("cancel %s task %s: %w", source, rawID, err)
		}
		if !cancelled {
			return fmt.Errorf("%w: %s", ErrNotRunning, id)
		}
		r.logger.Info().Str("task_id", id).Msg("task cancelled")
		return nil
	}

	return fmt.Errorf("%w: unknown source %q", ErrInvalidTaskID, source)
}
