package contextx

import "context"

// RequestIDKey carries the id of the inbound HTTP request.
type RequestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, id)
}

func GetRequestID(ctx context.Context) (string, bool) {
	return stringValue(ctx, RequestIDKey{})
}

// SenderIDKey carries the conversation id assigned by the dialogue manager.
type SenderIDKey struct{}

func WithSenderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SenderIDKey{}, id)
}

func GetSenderID(ctx context.Context) (string, bool) {
	return stringValue(ctx, SenderIDKey{})
}

// ActionKey carries the name of the action being executed.
type ActionKey struct{}

func WithAction(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ActionKey{}, name)
}

func GetAction(ctx context.Context) (string, bool) {
	return stringValue(ctx, ActionKey{})
}

func stringValue(ctx context.Context, key any) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
