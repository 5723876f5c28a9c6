// Package cache opens the Dragonfly/Redis client shared by the document cache
// and the session store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientName tags predictor connections in CLIENT LIST.
const ClientName = "pai-predict"

// Options tunes the client. Zero values take the defaults below.
type Options struct {
	DialTimeout time.Duration // default 5s
	IOTimeout   time.Duration // read and write, default 3s
	ClientName  string
}

// Cache is an open Redis client.
type Cache struct {
	Client *redis.Client
}

func clientOptions(url string, opts Options) (*redis.Options, error) {
	if url == "" {
		return nil, errors.New("cache URL is empty")
	}
	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}

	ro.DialTimeout = orDefault(opts.DialTimeout, 5*time.Second)
	ro.ReadTimeout = orDefault(opts.IOTimeout, 3*time.Second)
	ro.WriteTimeout = ro.ReadTimeout
	if ro.ClientName == "" {
		ro.ClientName = ClientName
		if opts.ClientName != "" {
			ro.ClientName = opts.ClientName
		}
	}
	return ro, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// Open connects the client and checks it answers.
func Open(ctx context.Context, url string, opts Options) (*Cache, error) {
	ro, err := clientOptions(url, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache at %s: %w", ro.Addr, err)
	}
	return &Cache{Client: client}, nil
}

func (c *Cache) Close() error {
	return c.Client.Close()
}

// Name identifies the client in readiness reports.
func (c *Cache) Name() string {
	return "cache"
}

// HealthCheck pings the server.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return errors.New("cache client is not open")
	}
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}
