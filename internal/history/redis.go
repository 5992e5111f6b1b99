package history

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/redis/go-redis/v9"
)

// recordScript applies a weight delta atomically on the server. The result is returned as a
// string because Redis truncates Lua numbers to integers.
var recordScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if not current then
	current = ARGV[3]
end
local updated = tonumber(current) + tonumber(ARGV[2])
if updated > 1 then
	updated = 1
end
local encoded = string.format('%.17g', updated)
redis.call('HSET', KEYS[1], ARGV[1], encoded)
return encoded
`)

// RedisStore persists interaction weights in a Redis hash so they outlive the process and
// can be shared between service instances.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = models.DefaultHistoryKey
	}
	return &RedisStore{client: client, key: key}
}

// Record applies an interaction in Redis and returns the stored weight.
func (r *RedisStore) Record(ctx context.Context, in models.Interaction) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	delta := strconv.FormatFloat(KindDeltas[in.Kind], 'f', -1, 64)
	def := strconv.FormatFloat(DefaultWeight, 'f', -1, 64)

	res, err := recordScript.Run(ctx, r.client, []string{r.key}, in.DealID, delta, def).Text()
	if err != nil {
		return 0, fmt.Errorf("record interaction for deal %s: %w", in.DealID, err)
	}
	w, err := strconv.ParseFloat(res, 64)
	if err != nil {
		return 0, fmt.Errorf("parse weight for deal %s: %w", in.DealID, err)
	}
	return w, nil
}

// Load reads every stored weight into a fresh Memory store.
func (r *RedisStore) Load(ctx context.Context) (*Memory, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load interaction history: %w", err)
	}
	weights := make(map[string]float64, len(raw))
	for id, v := range raw {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse weight for deal %s: %w", id, err)
		}
		weights[id] = w
	}
	mem := NewMemory()
	if err := mem.Replace(weights); err != nil {
		return nil, err
	}
	return mem, nil
}

// Save overwrites the stored hash with the snapshot contents.
func (r *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	fields := make(map[string]interface{}, snap.Len())
	snap.Each(func(id string, w float64) {
		fields[id] = strconv.FormatFloat(w, 'f', -1, 64)
	})

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, r.key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save interaction history: %w", err)
	}
	return nil
}
