package kit

import "context"

type contextKey string

// Serving transports attach these before dispatching tool calls; Logging
// reads them back so every endpoint log line carries its origin.
const (
	TransportKey  contextKey = "lexpipe_transport" // "stdio", "mcp_quic"
	SessionIDKey  contextKey = "lexpipe_session_id"
	RemoteAddrKey contextKey = "lexpipe_remote_addr"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport defaults to "stdio": the stdio server dispatches without
// enriching the context, only the QUIC listener tags its sessions.
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "stdio"
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}

func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}
func GetRemoteAddr(ctx context.Context) string {
	v, _ := ctx.Value(RemoteAddrKey).(string)
	return v
}
