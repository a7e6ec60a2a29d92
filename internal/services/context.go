package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	operationKey contextKey = "operation"
	chunkKey     contextKey = "chunk"
)

// ChunkPosition identifies a chunk within a batch (1-based index).
type ChunkPosition struct {
	Index int
	Total int
}

// WithRunID annotates context with the correlation identifier for one CLI run.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the operation name (extract, translate, ...).
func WithOperation(ctx context.Context, op string) context.Context {
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, op)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(operationKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithChunk annotates context with the chunk currently being processed.
func WithChunk(ctx context.Context, index, total int) context.Context {
	if total <= 0 {
		return ctx
	}
	return context.WithValue(ctx, chunkKey, ChunkPosition{Index: index, Total: total})
}

// ChunkFromContext returns the chunk position if present.
func ChunkFromContext(ctx context.Context) (ChunkPosition, bool) {
	v, ok := ctx.Value(chunkKey).(ChunkPosition)
	if !ok || v.Total <= 0 {
		return ChunkPosition{}, false
	}
	return v, true
}
