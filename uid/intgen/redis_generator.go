package intgen

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string        `cfg:"addr" def:"localhost:6379"`
	Password string        `cfg:"password"`
	DB       int           `cfg:"db"`
	KeyName  string        `cfg:"keyName" def:"uid:sequence"`
	Timeout  time.Duration `cfg:"timeout" def:"3s"`

	// Client 复用已有的客户端，设置后忽略 Addr/Password/DB
	Client redis.UniversalClient `cfg:"-"`
}

// RedisGenerator 高 52 位毫秒时间戳 + 低 12 位序列号，序列号由 redis INCR 分配，多实例之间不重复
type RedisGenerator struct {
	client  redis.UniversalClient
	keyName string
	timeout time.Duration
}

func NewRedisGeneratorWithOptions(options *RedisOptions) (*RedisGenerator, error) {
	if options == nil {
		options = &RedisOptions{}
	}
	keyName := options.KeyName
	if keyName == "" {
		keyName = "uid:sequence"
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	client := options.Client
	if client == nil {
		addr := options.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: options.Password,
			DB:       options.DB,
		})
	}

	return &RedisGenerator{client: client, keyName: keyName, timeout: timeout}, nil
}

// Generate redis 不可用时退化为本地时间戳，不保证唯一
func (g *RedisGenerator) Generate() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	id, err := g.GenerateContext(ctx)
	if err != nil {
		return time.Now().UnixMilli() << sequenceBits
	}
	return id
}

// GenerateContext 同 Generate，但返回 redis 错误
func (g *RedisGenerator) GenerateContext(ctx context.Context) (int64, error) {
	for {
		timestamp := time.Now().UnixMilli()
		key := g.keyName + ":" + strconv.FormatInt(timestamp, 10)

		sequence, err := g.client.Incr(ctx, key).Result()
		if err != nil {
			return 0, errors.Wrapf(err, "redis incr %s failed", key)
		}
		if sequence == 1 {
			if err := g.client.Expire(ctx, key, 2*time.Second).Err(); err != nil {
				return 0, errors.Wrapf(err, "redis expire %s failed", key)
			}
		}
		if sequence-1 <= maxSequence {
			return timestamp<<sequenceBits | (sequence - 1), nil
		}

		select {
		case <-ctx.Done():
			return 0, errors.Wrap(ctx.Err(), "sequence exhausted")
		case <-time.After(time.Millisecond):
		}
	}
}

func (g *RedisGenerator) Close() error {
	return g.client.Close()
}
