package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/domain/tenant"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

// Replayable results expose the deduplicated flag callers receive on replay.
type Replayable interface {
	MarkDeduplicated()
}

// IdempotencyRecord is the stored state of a (tenant, key) pair. A record is
// claimed before the unit of work runs and completed with the encoded result
// afterwards; only completed records are replayable. The key space is
// partitioned per tenant: the same key under two tenants is two unrelated
// records.
type IdempotencyRecord struct {
	TenantID   tenant.ID
	Key        string
	Payload    []byte
	Completed  bool
	OccurredAt time.Time
}

// InsertOutcome reports whether an insert-if-absent write won the
// (tenant, key) slot or found it taken.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	AlreadyExists
)

// IdempotencyStore persists per-key execution state. Begin must rely on a
// uniqueness constraint over (tenant, key) so concurrent first calls resolve
// to at most one claim holder before any effect is applied.
type IdempotencyStore interface {
	Get(ctx context.Context, tenantID tenant.ID, key string) (IdempotencyRecord, bool, error)
	// Begin claims the (tenant, key) slot with an incomplete record.
	Begin(ctx context.Context, tenantID tenant.ID, key string, now time.Time) (InsertOutcome, error)
	// Complete stores the claim holder's encoded result and marks the record
	// replayable.
	Complete(ctx context.Context, rec IdempotencyRecord) error
	// Abort releases a claim whose execution failed so a retry may run.
	Abort(ctx context.Context, tenantID tenant.ID, key string) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// claimPollInterval paces a race loser's lookups while the claim holder is
// still executing.
const claimPollInterval = 20 * time.Millisecond

// Idempotency deduplicates command execution per (tenant, key). The slot is
// claimed before the unit of work runs, so racing first calls resolve to at
// most one execution; losers wait for the winner's stored result and replay
// it flagged as deduplicated, even when the retried payload differs. Failed
// executions release the claim without recording anything, so a retry after
// an error may still succeed.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			tenantID, err := tenant.IDFromContext(ctx)
			if err != nil {
				return nil, err
			}

			claimed, result, err := claimOrReplay(ctx, store, codec, idCmd, tenantID, key)
			if err != nil || !claimed {
				return result, err
			}

			result, err = nextFn(ctx, cmd)
			if err != nil {
				_ = store.Abort(ctx, tenantID, key)
				return nil, err
			}
			record := IdempotencyRecord{
				TenantID:   tenantID,
				Key:        key,
				Completed:  true,
				OccurredAt: time.Now().UTC(),
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					_ = store.Abort(ctx, tenantID, key)
					return nil, encErr
				}
				record.Payload = payload
			}
			if err := store.Complete(ctx, record); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

// claimOrReplay resolves who executes. It returns claimed=true when this call
// won the (tenant, key) slot and must run the unit of work. A completed record
// replays immediately; an incomplete one belongs to a call still in flight, so
// the loser polls until the winner completes, aborts, or the context ends.
func claimOrReplay(ctx context.Context, store IdempotencyStore, codec ResultCodec, cmd IdempotentCommand, tenantID tenant.ID, key string) (bool, any, error) {
	for {
		rec, found, err := store.Get(ctx, tenantID, key)
		if err != nil {
			return false, nil, err
		}
		if found && rec.Completed {
			result, err := replay(cmd, codec, rec)
			return false, result, err
		}
		if !found {
			outcome, err := store.Begin(ctx, tenantID, key, time.Now().UTC())
			if err != nil {
				return false, nil, err
			}
			if outcome == Inserted {
				return true, nil, nil
			}
			// Lost the race to a concurrent first call; fall through to
			// waiting on its record.
		}
		select {
		case <-ctx.Done():
			return false, nil, ctx.Err()
		case <-time.After(claimPollInterval):
		}
	}
}

func replay(cmd IdempotentCommand, codec ResultCodec, rec IdempotencyRecord) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	if r, ok := proto.(Replayable); ok {
		r.MarkDeduplicated()
	}
	return normalizePrototype(proto), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
