// Package orchestrator contains the three sync run types: config, product
// and stock. An orchestrator executes one job sequentially from fetch to
// counters; per-item failures are absorbed into the result, phase-level
// failures (auth, fetch, decryption) propagate to the dispatcher.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/domain/tenant"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// processBatchSize is how many variations are resolved and written per batch.
const processBatchSize = 50

// SourceClient is the subset of the source API client orchestrators use.
type SourceClient interface {
	FetchAll(ctx context.Context, resource string, filters sourceapi.Filters) ([]json.RawMessage, error)
	FetchDelta(ctx context.Context, resource string, since time.Time, relations []string) ([]json.RawMessage, error)
}

var _ SourceClient = (*sourceapi.Client)(nil)

// Env is the per-job environment the dispatcher assembles after decrypting
// credentials: the tenant's identity and settings plus clients bound to that
// tenant's endpoints. Orchestrators themselves hold only long-lived
// collaborators and stay safe for concurrent jobs.
type Env struct {
	TenantID uuid.UUID
	Settings tenant.SyncSettings
	Config   *tenant.Config
	Source   SourceClient
	Dest     destination.API
}

// formatID renders a numeric source identifier the way replica rows and
// mappings store it.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// optionalID renders a numeric source identifier, mapping zero to empty.
func optionalID(id int64) string {
	if id == 0 {
		return ""
	}
	return formatID(id)
}

// touchState loads or creates the watermark row for the given key and
// records an attempt.
func touchState(ctx context.Context, states sync.StateRepository, tenantID uuid.UUID, key sync.SyncType, at time.Time) (*sync.State, error) {
	state, err := states.Find(ctx, tenantID, key)
	if errors.Is(err, sync.ErrStateNotFound) {
		state = sync.NewState(tenantID, key)
	} else if err != nil {
		return nil, err
	}
	state.RecordAttempt(at)
	if err := states.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
