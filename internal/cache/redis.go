package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pagesKey is the Hash holding all cached page bodies (field = URL).
	pagesKey = "subharvest:pages"
	// recencyKey is the Sorted Set tracking visit recency (member = URL,
	// score = last-access µs timestamp).
	recencyKey = "subharvest:recency"
)

func init() {
	RegisterBackend("redis", newRedisStore)
}

// redisStore keeps page bodies in Redis/Valkey so a cache can be shared
// between harvest runs or across hosts pointed at the same catalog.
//
// Requires Redis 7.4+ or Valkey 8+ for per-field hash TTL (HPEXPIRE). On an
// older server StorePage succeeds but bodies never expire server-side.
//
// The whole store lives in two Redis keys regardless of how many pages are
// cached: the pages Hash (per-field TTL trims expired bodies without
// application-side cleanup) and the recency Sorted Set. Lua scripts make the
// touch-on-read and store-then-trim paths atomic; recency members whose page
// field already expired are lazily cleaned while trimming.
type redisStore struct {
	client   *redis.Client
	ttl      time.Duration
	maxPages int
	onEvict  EvictCallback
	logger   Logger
}

// touchPage atomically fetches a page body and, on a hit, refreshes its
// recency score.
//
// KEYS[1] = pages hash, KEYS[2] = recency sorted set
// ARGV[1] = current µs timestamp, ARGV[2] = page URL
//
// Returns the body on hit, nil on miss (including expired fields).
var touchPage = redis.NewScript(`
local body = redis.call('HGET', KEYS[1], ARGV[2])
if body then
    redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
end
return body
`)

// storeAndTrim atomically stores a page body, arms its per-field TTL, records
// recency, and drops the least-recently-visited pages while over capacity.
// If a page field already expired server-side, HDEL is a harmless no-op and
// the stale recency member is still cleaned up.
//
// KEYS[1] = pages hash, KEYS[2] = recency sorted set
// ARGV[1] = body, ARGV[2] = current µs timestamp, ARGV[3] = page URL,
// ARGV[4] = max pages, ARGV[5] = TTL in milliseconds
//
// Returns the list of dropped page URLs (may be empty).
var storeAndTrim = redis.NewScript(`
local pageURL  = ARGV[3]
local maxPages = tonumber(ARGV[4])
local ttlMs    = tonumber(ARGV[5])

redis.call('HSET', KEYS[1], pageURL, ARGV[1])
redis.call('HPEXPIRE', KEYS[1], ttlMs, 'FIELDS', 1, pageURL)
redis.call('ZADD', KEYS[2], ARGV[2], pageURL)

local held = redis.call('ZCARD', KEYS[2])
local dropped = {}
while held > maxPages do
    local oldest = redis.call('ZPOPMIN', KEYS[2], 1)
    if #oldest == 0 then break end
    local oldURL = oldest[1]
    redis.call('HDEL', KEYS[1], oldURL)
    table.insert(dropped, oldURL)
    held = held - 1
end

return dropped
`)

func newRedisStore(opts Options) (PageStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddress,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	// Verify connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisStore{
		client:   client,
		ttl:      opts.TTL,
		maxPages: opts.MaxPages,
		onEvict:  opts.OnEvict,
		logger:   opts.Logger,
	}, nil
}

func (r *redisStore) keys() []string {
	return []string{pagesKey, recencyKey}
}

func (r *redisStore) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, err)
	}
}

func (r *redisStore) GetPage(pageURL string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	body, err := touchPage.Run(ctx, r.client, r.keys(), now, pageURL).Text()
	if err != nil {
		// redis.Nil means the page isn't cached, a normal miss.
		if !errors.Is(err, redis.Nil) {
			r.logError("redis page store GetPage failed", err)
		}
		return nil, false
	}
	return []byte(body), true
}

func (r *redisStore) StorePage(pageURL string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	maxPages := strconv.Itoa(r.maxPages)
	ttlMs := strconv.FormatInt(r.ttl.Milliseconds(), 10)

	dropped, err := storeAndTrim.Run(ctx, r.client, r.keys(),
		body, now, pageURL, maxPages, ttlMs,
	).StringSlice()

	if err != nil {
		r.logError("redis page store StorePage failed", err)
		return
	}

	if len(dropped) == 0 || r.onEvict == nil {
		return
	}

	// Body is nil: recovering dropped bodies from Redis would cost extra
	// roundtrips, and callers only use the URL for bookkeeping.
	for _, droppedURL := range dropped {
		r.onEvict(droppedURL, nil)
	}
}

func (r *redisStore) ContainsPage(pageURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	held, err := r.client.HExists(ctx, pagesKey, pageURL).Result()
	if err != nil {
		r.logError("redis page store ContainsPage failed", err)
	}
	return err == nil && held
}

func (r *redisStore) Pages() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := r.client.HLen(ctx, pagesKey).Result()
	if err != nil {
		r.logError("redis page store Pages failed", err)
		return 0
	}
	return int(n)
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
