package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the authenticated caller, when auth is enabled.
type RequestData struct {
	UserID int
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
