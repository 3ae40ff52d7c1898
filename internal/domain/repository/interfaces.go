package repository

import (
	"context"
	"time"
)

// ResultCache stores serialized collaborator results keyed by series fingerprint.
type ResultCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

type Metrics interface {
	RecordAnalysis(points int)
	RecordCollaborator(name, outcome string)
	RecordCacheLookup(kind string, hit bool)
	RecordLatency(op string, seconds float64)
}
