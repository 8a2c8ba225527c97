package common

import "context"

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID  contextKey = "request_id"
	ContextKeyContractID contextKey = "contract_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithContractID adds a contract ID to the context
func WithContractID(ctx context.Context, contractID string) context.Context {
	return context.WithValue(ctx, ContextKeyContractID, contractID)
}

// ContractIDFromContext extracts the contract ID from context
func ContractIDFromContext(ctx context.Context) string {
	if contractID, ok := ctx.Value(ContextKeyContractID).(string); ok {
		return contractID
	}
	return ""
}
