package authflow

import (
	"context"

	"github.com/MrEthical07/authflow/gateway"
)

// WithRequestID attaches the X-Request-ID the next gateway call sends and the
// audit event records. Without one, the gateway generates a UUID per call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return gateway.WithRequestID(ctx, id)
}

func requestIDFromContext(ctx context.Context) string {
	return gateway.RequestIDFromContext(ctx)
}
