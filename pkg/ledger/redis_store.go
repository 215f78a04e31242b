package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

// Status codes returned by the Lua scripts.
const (
	scriptNotFound = -1
	scriptDenied   = 0
	scriptApplied  = 1
)

// ceilingScript atomically applies "increment only if the resulting pooled
// total stays within the limit, or the account is unlimited". Doing the
// check and the HINCRBY in one script is what makes concurrent debits from
// the same account safe.
//
// ARGV: [1]=amount, [2]=unlimited threshold, [3]=target field,
// [4..]=all counter fields. Returns {status, remaining}.
var ceilingScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1, 0}
end
local n = tonumber(ARGV[1])
local threshold = tonumber(ARGV[2])
local limit = tonumber(redis.call('HGET', KEYS[1], 'credit_limit') or '0')
local total = 0
for i = 4, #ARGV do
  total = total + tonumber(redis.call('HGET', KEYS[1], ARGV[i]) or '0')
end
if limit < threshold and total + n > limit then
  local remaining = limit - total
  if remaining < 0 then remaining = 0 end
  return {0, remaining}
end
redis.call('HINCRBY', KEYS[1], ARGV[3], n)
local remaining = limit - total - n
if remaining < 0 then remaining = 0 end
return {1, remaining}
`)

// incrementScript applies an unconditional increment and returns the new
// pooled total. ARGV: [1]=amount, [2]=target field, [3..]=all counter fields.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1, 0}
end
redis.call('HINCRBY', KEYS[1], ARGV[2], tonumber(ARGV[1]))
local total = 0
for i = 3, #ARGV do
  total = total + tonumber(redis.call('HGET', KEYS[1], ARGV[i]) or '0')
end
return {1, total}
`)

// RedisStore implements Store on a Redis hash per account.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a ledger store on the given Redis client.
// Panics if client is nil to fail fast during initialization.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	if client == nil {
		panic("ledger: redis client is required")
	}
	return &RedisStore{client: client, keyPrefix: "ledger:"}
}

func (s *RedisStore) key(accountID uuid.UUID) string {
	return s.keyPrefix + accountID.String()
}

func usedField(cat entitlement.Category) string {
	return "used:" + string(cat)
}

func allUsedFields() []string {
	cats := entitlement.Categories()
	fields := make([]string, len(cats))
	for i, cat := range cats {
		fields[i] = usedField(cat)
	}
	return fields
}

func (s *RedisStore) Get(ctx context.Context, accountID uuid.UUID) (entitlement.Ledger, error) {
	vals, err := s.client.HGetAll(ctx, s.key(accountID)).Result()
	if err != nil {
		return entitlement.Ledger{}, errors.Join(ErrStoreFailure, err)
	}
	if len(vals) == 0 {
		return entitlement.Ledger{}, ErrLedgerNotFound
	}

	led := entitlement.Ledger{Used: make(map[entitlement.Category]int64)}
	led.CreditLimit, _ = strconv.ParseInt(vals["credit_limit"], 10, 64)
	led.FirstItemPassUsed = vals["first_item_pass"] == "1"
	for _, cat := range entitlement.Categories() {
		if raw, ok := vals[usedField(cat)]; ok {
			led.Used[cat], _ = strconv.ParseInt(raw, 10, 64)
		} else {
			led.Used[cat] = 0
		}
	}
	return led, nil
}

func (s *RedisStore) Create(ctx context.Context, accountID uuid.UUID, creditLimit int64) error {
	created, err := s.client.HSetNX(ctx, s.key(accountID), "credit_limit", creditLimit).Result()
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if !created {
		return ErrLedgerAlreadyExists
	}
	return nil
}

func (s *RedisStore) IncrementUsage(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}

	args := append([]any{n, usedField(cat)}, anySlice(allUsedFields())...)
	status, value, err := s.runScript(ctx, incrementScript, accountID, args)
	if err != nil {
		return 0, err
	}
	if status == scriptNotFound {
		return 0, ErrLedgerNotFound
	}
	return value, nil
}

func (s *RedisStore) IncrementUsageWithCeiling(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}

	args := append([]any{n, entitlement.UnlimitedThreshold, usedField(cat)}, anySlice(allUsedFields())...)
	status, remaining, err := s.runScript(ctx, ceilingScript, accountID, args)
	if err != nil {
		return 0, err
	}
	switch status {
	case scriptNotFound:
		return 0, ErrLedgerNotFound
	case scriptDenied:
		return remaining, ErrCeilingExceeded
	}
	return remaining, nil
}

func (s *RedisStore) SetCreditLimit(ctx context.Context, accountID uuid.UUID, limit int64) error {
	if err := s.requireRow(ctx, accountID); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key(accountID), "credit_limit", limit).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) AddCredits(ctx context.Context, accountID uuid.UUID, n int64) error {
	if n <= 0 {
		return ErrInvalidAmount
	}
	if err := s.requireRow(ctx, accountID); err != nil {
		return err
	}
	if err := s.client.HIncrBy(ctx, s.key(accountID), "credit_limit", n).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) ResetUsage(ctx context.Context, accountID uuid.UUID) error {
	if err := s.requireRow(ctx, accountID); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.key(accountID), allUsedFields()...).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) MarkFirstItemPassUsed(ctx context.Context, accountID uuid.UUID) error {
	if err := s.requireRow(ctx, accountID); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key(accountID), "first_item_pass", 1).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) requireRow(ctx context.Context, accountID uuid.UUID) error {
	exists, err := s.client.Exists(ctx, s.key(accountID)).Result()
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if exists == 0 {
		return ErrLedgerNotFound
	}
	return nil
}

func (s *RedisStore) runScript(ctx context.Context, script *redis.Script, accountID uuid.UUID, args []any) (status, value int64, err error) {
	res, err := script.Run(ctx, s.client, []string{s.key(accountID)}, args...).Result()
	if err != nil {
		return 0, 0, errors.Join(ErrStoreFailure, err)
	}

	pair, ok := res.([]any)
	if !ok || len(pair) != 2 {
		return 0, 0, errors.Join(ErrStoreFailure, errors.New("unexpected script reply shape"))
	}
	status, _ = pair[0].(int64)
	value, _ = pair[1].(int64)
	return status, value, nil
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
