package rebuild

import (
	"context"
	"errors"
	"log/slog"

	"namedex/internal/platform/kafka/consumer"
	"namedex/pkg/platform/sentinel"
)

// ChangeHandler reacts to upstream registry-change events by scheduling a
// full rebuild. There is no incremental-update contract: any change event
// means "the index may be stale, regenerate it".
type ChangeHandler struct {
	service *Service
	logger  *slog.Logger
}

// NewChangeHandler creates a handler around the rebuild service.
func NewChangeHandler(service *Service, logger *slog.Logger) *ChangeHandler {
	return &ChangeHandler{service: service, logger: logger}
}

// Handle triggers a shared rebuild pass. Bursts of events collapse into one
// pass via the service's singleflight group; a pass already holding the lock
// elsewhere counts as handled, since the index is being regenerated anyway.
func (h *ChangeHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	h.logger.InfoContext(ctx, "registry change received, rebuilding index",
		"topic", msg.Topic,
		"key", string(msg.Key),
	)

	stats, err := h.service.RebuildShared(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			h.logger.InfoContext(ctx, "rebuild already in progress, skipping trigger")
			return nil
		}
		return err
	}

	h.logger.InfoContext(ctx, "triggered rebuild finished",
		"people", stats.People,
		"variants", stats.Variants,
		"elapsed", stats.Elapsed.String(),
	)
	return nil
}
