package instrument

import "context"

// HeaderCorrelationID is the HTTP header carrying the correlation id.
const HeaderCorrelationID = "X-Correlation-ID"

type correlationIDKey struct{}

// SetCorrelationID stores the correlation id in ctx.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cID)
}

// GetCorrelationID returns the correlation id stored in ctx, or "" when none is set.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cID, _ := ctx.Value(correlationIDKey{}).(string)
	return cID
}
