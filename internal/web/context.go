package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// WithRequestMetadata adds the client address to ctx for run logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	// RemoteAddr has already been resolved by TrustedRealIP.
	return core.ContextWithIPAddress(ctx, r.RemoteAddr)
}
