package port

import (
	"context"

	"github.com/podhive/access-engine/internal/domain/entity"
)

// PushSender is the consumed notification transport: delivers a message to a
// list of device addresses best-effort. Failures are logged by the caller,
// never propagated to the originating workflow operation.
type PushSender interface {
	Send(ctx context.Context, addresses []string, msg entity.PushMessage) error
}
