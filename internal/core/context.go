package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "journal_client"

// Client identifies who asked for a mutation. Copied into journal entries.
type Client struct {
	IPAddress string
	UserAgent string
}

// ContextWithClient attaches the requesting client to ctx.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, ctxKeyClient, Client{IPAddress: ip, UserAgent: userAgent})
}

// ClientFromContext returns the client attached to ctx, or the zero Client.
func ClientFromContext(ctx context.Context) Client {
	if c, ok := ctx.Value(ctxKeyClient).(Client); ok {
		return c
	}
	return Client{}
}
