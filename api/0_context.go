package api

import (
	"context"

	"github.com/docbridge/docbridge/service"
)

const contextServicerKey = "1f6e07aa-8a3d-4a59-9e79-ef24d4fca4c5"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, contextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	s, _ := ctx.Value(contextServicerKey).(service.Servicer)
	return s
}
