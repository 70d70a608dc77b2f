package retrieval

import (
	"context"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
)

// RedisConfig configures a Redis-backed retrieval.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string `mapstructure:"addr" validate:"required"`
	// Password authenticates the connection. Empty means no auth.
	Password string `mapstructure:"password"`
	// DB selects the logical database.
	DB int `mapstructure:"db" validate:"gte=0"`
	// KeyPrefix namespaces all keys used by the retrieval.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Redis serves entities from a Redis hash. Payloads live in the hash
// "<prefix>:items" keyed by entity id; the cached entity list lives in the
// list "<prefix>:manifest".
type Redis struct {
	client goredis.Cmdable
	prefix string
	log    *logger.Logger
}

// NewRedis connects to Redis and builds a retrieval over it.
func NewRedis(cfg RedisConfig) *Redis {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisFromClient(client, cfg.KeyPrefix)
}

// NewRedisFromClient wraps an existing client. Useful for tests and shared
// connection pools.
func NewRedisFromClient(client goredis.Cmdable, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = "datakit"
	}
	return &Redis{
		client: client,
		prefix: keyPrefix,
		log:    logger.WithComponent("retrieval.redis"),
	}
}

func (r *Redis) itemsKey() string    { return r.prefix + ":items" }
func (r *Redis) manifestKey() string { return r.prefix + ":manifest" }

// Put stores one item payload. Provided for seeding and ingestion jobs.
func (r *Redis) Put(ctx context.Context, id string, payload []byte) error {
	if err := r.client.HSet(ctx, r.itemsKey(), id, payload).Err(); err != nil {
		return errors.RetrievalFailed("put", err).WithDetail("entity_id", id)
	}
	return nil
}

// Fetch reads one item payload from the items hash.
func (r *Redis) Fetch(ctx context.Context, id string) ([]byte, error) {
	raw, err := r.client.HGet(ctx, r.itemsKey(), id).Bytes()
	if err == goredis.Nil {
		return nil, errors.RetrievalFailed("fetch", err).WithDetail("entity_id", id)
	}
	if err != nil {
		return nil, errors.RetrievalFailed("fetch", err).WithDetail("entity_id", id)
	}
	return raw, nil
}

// List enumerates item ids from the items hash, sorted.
func (r *Redis) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.HKeys(ctx, r.itemsKey()).Result()
	if err != nil {
		return nil, errors.RetrievalFailed("list", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsCached reports whether a manifest list exists.
func (r *Redis) IsCached() bool {
	n, err := r.client.Exists(context.Background(), r.manifestKey()).Result()
	return err == nil && n > 0
}

// LoadFromCache rebuilds entities from the manifest list.
func (r *Redis) LoadFromCache(ctx context.Context, f entity.Factory) ([]entity.Entity, error) {
	ids, err := r.client.LRange(ctx, r.manifestKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.CacheFailed("load", err)
	}

	entities := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		e, err := f(ctx, id, r)
		if err != nil {
			return nil, errors.CacheFailed("load", err).WithDetail("entity_id", id)
		}
		entities = append(entities, e)
	}
	r.log.Info("loaded entities from cache", logger.Fields(logger.FieldCount, len(entities)))
	return entities, nil
}

// Cache replaces the manifest list with the given entity ids.
func (r *Redis) Cache(ctx context.Context, entities []entity.Entity) error {
	ids := make([]interface{}, len(entities))
	for i, e := range entities {
		ids[i] = e.UniqueID()
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.manifestKey())
	if len(ids) > 0 {
		pipe.RPush(ctx, r.manifestKey(), ids...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.CacheFailed("store", err)
	}
	r.log.Debug("cached entity ids", logger.Fields(logger.FieldCount, len(ids)))
	return nil
}

var _ Retrieval = (*Redis)(nil)
