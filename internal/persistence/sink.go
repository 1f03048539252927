// Package persistence archives ExitedPosition records once a position
// closes. The matching/account core never depends on this package
// directly; the session wiring in cmd/hourglass forwards EventLiquidation
// and the offset-fill path's exited positions into whichever Sink is
// configured.
package persistence

import (
	"context"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// ArchiveSink persists closed positions for later querying. Implementations
// must be safe for concurrent use; the session may archive from the
// dispatcher loop while a separate reporting goroutine reads.
type ArchiveSink interface {
	Archive(ctx context.Context, session string, p model.ExitedPosition) error
	ListBySession(ctx context.Context, session string) ([]model.ExitedPosition, error)
}
