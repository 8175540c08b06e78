package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"whistleinn/internal/app/commands"
	domainbooking "whistleinn/internal/domain/booking"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
)

// IdempotentCommand must be implemented by commands that want idempotency
// guarantees (checkout retries must not double-hold dates).
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // must match the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorKind  string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
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

// Idempotency replays the stored result (or error) for a repeated key instead
// of re-executing the command.
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
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Error != "" {
					return nil, decodeStoredError(rec)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				OccurredAt: time.Now().UTC(),
			}
			if err != nil {
				record.Error = err.Error()
				record.ErrorKind = classifyError(err)
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

// replaySentinels are the domain failures whose identity must survive a
// replay: a retried checkout that first lost its dates has to map to the
// same HTTP status the original attempt did, not to a generic 500.
var replaySentinels = []error{
	daterange.ErrInvalidRange,
	domainbooking.ErrDatesUnavailable,
	domainbooking.ErrInvalidState,
	domainbooking.ErrInvalidGuests,
	domainbooking.ErrNotFound,
	domainrates.ErrMinimumStay,
	domaincoupon.ErrNotFound,
	domaincoupon.ErrInvalid,
	domaincoupon.ErrUsesExhausted,
	domaincoupon.ErrRedeemConflict,
}

func classifyError(err error) string {
	for _, sentinel := range replaySentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ""
}

func decodeStoredError(rec IdempotencyRecord) error {
	for _, sentinel := range replaySentinels {
		if sentinel.Error() != rec.ErrorKind {
			continue
		}
		if rec.Error == rec.ErrorKind {
			return sentinel
		}
		return replayedError{msg: rec.Error, kind: sentinel}
	}
	return errors.New(rec.Error)
}

// replayedError keeps the recorded message while unwrapping to the matched
// sentinel so errors.Is keeps working on replays.
type replayedError struct {
	msg  string
	kind error
}

func (e replayedError) Error() string { return e.msg }

func (e replayedError) Unwrap() error { return e.kind }

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
