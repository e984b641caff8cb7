package service

import (
	"context"
	"time"
)

const cleanupTimeout = 5 * time.Second

// detached returns a context for compensation steps that must finish even
// after the caller goes away. Values such as the actor are kept.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}
