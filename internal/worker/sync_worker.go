package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"agenda/internal/config"
	"agenda/internal/events"
	"agenda/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SheetsClient is the spreadsheet side of the mirror.
type SheetsClient interface {
	UpsertBooking(ctx context.Context, booking events.BookingEventPayload) error
}

// SyncTask is one booking snapshot waiting to be mirrored.
type SyncTask struct {
	EventType  string                     `json:"event_type"`
	Booking    events.BookingEventPayload `json:"booking"`
	Attempt    int                        `json:"attempt"`
	LastError  string                     `json:"last_error,omitempty"`
	EnqueuedAt time.Time                  `json:"enqueued_at"`
}

// SyncWorker mirrors booking events into a spreadsheet. Tasks go through a Redis list
// when Redis is reachable and through an in-memory queue otherwise.
type SyncWorker struct {
	sheets        SheetsClient
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan SyncTask
	redisQueueKey string
	deadLetterKey string
	popTimeout    time.Duration
	logger        *zerolog.Logger

	mu          sync.Mutex
	deadLetters []SyncTask
	// mirrored is the highest version written per booking
	mirrored map[int64]int64
}

func NewSyncWorker(sheets SheetsClient, redisClient *redis.Client, cfg config.SyncConfig, retry RetryPolicy, logger *zerolog.Logger) *SyncWorker {
	if cfg.MaxAttempts > 0 {
		retry.MaxRetries = cfg.MaxAttempts
	}
	queueKey := cfg.QueueKey
	if queueKey == "" {
		queueKey = "agenda:sync:queue"
	}
	return &SyncWorker{
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan SyncTask, 256),
		redisQueueKey: queueKey,
		deadLetterKey: queueKey + ":deadletter",
		popTimeout:    time.Second,
		logger:        logger,
		mirrored:      make(map[int64]int64),
	}
}

// Subscribe enqueues every booking lifecycle event published on bus.
func (w *SyncWorker) Subscribe(bus *events.EventBus) {
	for _, eventType := range events.BookingEventTypes {
		bus.Subscribe(eventType, w.handleEvent)
	}
}

func (w *SyncWorker) handleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	return w.Enqueue(context.Background(), SyncTask{
		EventType:  event.Type,
		Booking:    payload,
		EnqueuedAt: event.CreatedAt,
	})
}

// Enqueue schedules a task, preferring Redis for durability.
func (w *SyncWorker) Enqueue(ctx context.Context, task SyncTask) error {
	if task.Booking.BookingID == 0 {
		return errors.New("booking id is required")
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	if w.redis != nil {
		err := w.pushRedis(ctx, w.redisQueueKey, task)
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int64("booking_id", task.Booking.BookingID).Msg("Redis push failed, using memory queue")
	}

	select {
	case w.queue <- task:
		return nil
	default:
		w.toDeadLetter(ctx, task, "memory queue full")
		return errors.New("sync queue is full")
	}
}

// Start consumes tasks until ctx is done.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Str("queue", w.redisQueueKey).Msg("Sync worker started")
	defer w.logger.Info().Msg("Sync worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		if task, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, task)
			continue
		}

		if w.redis != nil {
			if task, ok := w.tryRedis(ctx); ok {
				w.processTask(ctx, task)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.processTask(ctx, task)
		}
	}
}

func (w *SyncWorker) tryLocalQueue() (SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return SyncTask{}, false
	}
}

func (w *SyncWorker) tryRedis(ctx context.Context) (SyncTask, bool) {
	res, err := w.redis.BRPop(ctx, w.popTimeout, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return SyncTask{}, false
		}
		w.logger.Warn().Err(err).Msg("Redis BRPOP failed")
		// не крутим цикл впустую, пока Redis недоступен
		select {
		case <-ctx.Done():
		case <-time.After(w.popTimeout):
		}
		return SyncTask{}, false
	}
	if len(res) != 2 {
		return SyncTask{}, false
	}

	var task SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode sync task")
		return SyncTask{}, false
	}
	return task, true
}

func (w *SyncWorker) processTask(ctx context.Context, task SyncTask) {
	// повторная попытка старого снимка не должна перетирать более новый статус
	if w.isStale(task.Booking) {
		metrics.IncSync("stale")
		w.logger.Debug().
			Int64("booking_id", task.Booking.BookingID).
			Int64("version", task.Booking.Version).
			Msg("Stale booking snapshot dropped")
		return
	}

	err := w.sheets.UpsertBooking(ctx, task.Booking)
	if err == nil {
		w.markMirrored(task.Booking)
		metrics.IncSync("ok")
		w.logger.Debug().
			Int64("booking_id", task.Booking.BookingID).
			Str("event_type", task.EventType).
			Msg("Booking mirrored")
		return
	}
	w.retryOrFail(ctx, task, err)
}

func (w *SyncWorker) isStale(b events.BookingEventPayload) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.mirrored[b.BookingID]
	return ok && b.Version < last
}

func (w *SyncWorker) markMirrored(b events.BookingEventPayload) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if last, ok := w.mirrored[b.BookingID]; !ok || b.Version > last {
		w.mirrored[b.BookingID] = b.Version
	}
}

func (w *SyncWorker) retryOrFail(ctx context.Context, task SyncTask, cause error) {
	task.Attempt++
	task.LastError = cause.Error()

	if w.retryPolicy.Exhausted(task.Attempt) {
		w.toDeadLetter(ctx, task, cause.Error())
		return
	}

	delay := w.retryPolicy.NextDelay(task.Attempt)
	metrics.IncSync("retry")
	w.logger.Warn().
		Err(cause).
		Int64("booking_id", task.Booking.BookingID).
		Int("attempt", task.Attempt).
		Dur("delay", delay).
		Msg("Booking sync failed, retrying")

	time.AfterFunc(delay, func() {
		if err := w.Enqueue(context.WithoutCancel(ctx), task); err != nil {
			w.logger.Error().Err(err).Int64("booking_id", task.Booking.BookingID).Msg("Failed to requeue sync task")
		}
	})
}

func (w *SyncWorker) toDeadLetter(ctx context.Context, task SyncTask, reason string) {
	metrics.IncSync("dead")
	w.logger.Error().
		Int64("booking_id", task.Booking.BookingID).
		Int("attempt", task.Attempt).
		Str("reason", reason).
		Msg("Booking sync moved to dead letter")

	if w.redis != nil {
		if err := w.pushRedis(context.WithoutCancel(ctx), w.deadLetterKey, task); err == nil {
			return
		}
	}
	w.mu.Lock()
	w.deadLetters = append(w.deadLetters, task)
	w.mu.Unlock()
}

// DeadLetters returns tasks that could not be parked in Redis.
func (w *SyncWorker) DeadLetters() []SyncTask {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]SyncTask(nil), w.deadLetters...)
}

func (w *SyncWorker) pushRedis(ctx context.Context, key string, task SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}
