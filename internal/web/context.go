package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/xltable/internal/core"
)

// withClient attaches the caller's address and User-Agent for the journal.
// RemoteAddr has already been rewritten by chi's RealIP middleware.
func withClient(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, r.RemoteAddr, r.UserAgent())
}
