package server

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDKey is the metadata key carrying the request id.
const RequestIDKey = "x-request-id"

// RequestIDFromContext returns the request id of an incoming call, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}

	ids := md.Get(RequestIDKey)
	if len(ids) == 0 || ids[0] == "" {
		return "", false
	}

	return ids[0], true
}

// withRequestID returns ctx with id set in its incoming metadata.
func withRequestID(ctx context.Context, id string) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.MD{}
	} else {
		md = md.Copy()
	}
	md.Set(RequestIDKey, id)
	return metadata.NewIncomingContext(ctx, md)
}

// requestIDInterceptor assigns a random id to calls that arrive without one.
func requestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := RequestIDFromContext(ctx); !ok {
			ctx = withRequestID(ctx, uuid.NewString())
		}
		return handler(ctx, req)
	}
}
