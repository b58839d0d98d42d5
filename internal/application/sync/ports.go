package sync

import (
	"context"
)

// TaskRunner executes fire-and-forget work off the request path. Submit
// returns false when the runner is saturated or stopped; callers treat
// a rejected task as a dropped best-effort side effect, never as a
// request failure.
type TaskRunner interface {
	Submit(name string, task func(ctx context.Context)) bool
}
