// Package journal mirrors handled notifications into Redis so processes other
// than the test that drives the server can assert on them.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/conduit-lang/mockls/internal/mock"
	"github.com/redis/go-redis/v9"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// DefaultKey is the Redis list events are appended to.
const DefaultKey = "mockls:events"

// DefaultQueueSize bounds the events waiting to be written.
const DefaultQueueSize = 1024

const recordTimeout = time.Second

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("journal closed")

// Config holds Redis connection settings
type Config struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Key is the list events are pushed to
	Key string
	// QueueSize bounds pending writes. Events beyond it are dropped.
	QueueSize int
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		Key:       DefaultKey,
		QueueSize: DefaultQueueSize,
	}
}

// Entry is one journaled event as read back from Redis.
type Entry struct {
	Kind   mock.EventKind       `json:"kind"`
	URI    protocol.DocumentURI `json:"uri"`
	Time   time.Time            `json:"time"`
	Params json.RawMessage      `json:"params"`
}

// queued is one pending write. A nil data with a flushed channel marks a
// flush point.
type queued struct {
	data    []byte
	flushed chan struct{}
}

// RedisJournal implements mock.EventSink on a Redis list. Record only
// enqueues; a background writer pushes to Redis in order.
type RedisJournal struct {
	client *redis.Client
	key    string
	logger *zap.Logger

	queue     chan queued
	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ mock.EventSink = (*RedisJournal)(nil)

// New connects to Redis and verifies the connection.
func New(cfg Config, logger *zap.Logger) (*RedisJournal, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return newJournal(client, cfg.Key, logger, cfg.QueueSize), nil
}

// NewWithClient wraps an existing client. An empty key uses DefaultKey.
func NewWithClient(client *redis.Client, key string, logger *zap.Logger) *RedisJournal {
	return newJournal(client, key, logger, DefaultQueueSize)
}

func newJournal(client *redis.Client, key string, logger *zap.Logger, queueSize int) *RedisJournal {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	j := &RedisJournal{
		client:   client,
		key:      key,
		logger:   logger,
		queue:    make(chan queued, queueSize),
		stopChan: make(chan struct{}),
	}
	j.wg.Add(1)
	go j.run()
	return j
}

// Record queues ev for writing and returns immediately. When the queue is
// full or the journal is closed the event is dropped with a warning.
func (j *RedisJournal) Record(_ context.Context, ev mock.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		j.logger.Warn("failed to encode event", zap.String("kind", string(ev.Kind)), zap.Error(err))
		return
	}

	select {
	case <-j.stopChan:
		j.logger.Warn("journal closed, dropping event", zap.String("kind", string(ev.Kind)))
		return
	default:
	}

	select {
	case j.queue <- queued{data: data}:
	default:
		j.logger.Warn("journal queue full, dropping event",
			zap.String("kind", string(ev.Kind)),
			zap.String("uri", string(ev.URI)))
	}
}

// Flush waits until every event recorded before the call has been written
// or has failed.
func (j *RedisJournal) Flush(ctx context.Context) error {
	select {
	case <-j.stopChan:
		return ErrClosed
	default:
	}

	done := make(chan struct{})
	select {
	case j.queue <- queued{flushed: done}:
	case <-j.stopChan:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *RedisJournal) run() {
	defer j.wg.Done()

	for {
		select {
		case q := <-j.queue:
			j.write(q)
		case <-j.stopChan:
			for {
				select {
				case q := <-j.queue:
					j.write(q)
				default:
					return
				}
			}
		}
	}
}

func (j *RedisJournal) write(q queued) {
	if q.flushed != nil {
		close(q.flushed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := j.client.RPush(ctx, j.key, q.data).Err(); err != nil {
		j.logger.Warn("failed to journal event", zap.Error(err))
	}
}

// Events returns every journaled event, oldest first.
func (j *RedisJournal) Events(ctx context.Context) ([]Entry, error) {
	values, err := j.client.LRange(ctx, j.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for i, value := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, fmt.Errorf("journal entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear drops every journaled event.
func (j *RedisJournal) Clear(ctx context.Context) error {
	return j.client.Del(ctx, j.key).Err()
}

// Close writes the events still queued, stops the writer and closes the
// Redis connection.
func (j *RedisJournal) Close() error {
	var err error
	j.closeOnce.Do(func() {
		close(j.stopChan)
		j.wg.Wait()
		err = j.client.Close()
	})
	return err
}
