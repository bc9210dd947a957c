package utils

import (
	"context"

	"github.com/aagamsoft/billing_backend/appctx"
)

var (
	ContextKeyOfficeCode    = appctx.ContextKeyOfficeCode
	ContextKeyClerkName     = appctx.ContextKeyClerkName
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetOfficeCodeFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyOfficeCode)
}

func GetClerkNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyClerkName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetOfficeCodeInContext(ctx context.Context, officeCode string) context.Context {
	return appctx.Set(ctx, ContextKeyOfficeCode, officeCode)
}

func SetClerkNameInContext(ctx context.Context, clerkName string) context.Context {
	return appctx.Set(ctx, ContextKeyClerkName, clerkName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
