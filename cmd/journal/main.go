// cmd/journal/main.go is an asynchronous journal service that pops draft
// event records from a Redis queue and persists them to PostgreSQL, so the
// API process never blocks on archival writes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/cache"
	"github.com/draftforge/herodraft/internal/database"
)

// JournalService encapsulates the Redis + DB logic for archiving draft
// events in batches.
type JournalService struct {
	redisClient *redis.Client
	batchSize   int
	flushDelay  time.Duration

	batchMu  sync.Mutex
	batch    []cache.DraftEventRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewJournalService constructs a JournalService from environment variables or defaults.
func NewJournalService() *JournalService {
	batchSize := getEnvInt("JOURNAL_BATCH_SIZE", 20)
	flushMs := getEnvInt("JOURNAL_FLUSH_MS", 500)

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &JournalService{
		redisClient: rdb,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]cache.DraftEventRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and starts the queue consumer loop.
func (js *JournalService) Run() {
	database.ConnectDB()

	go js.readRedisLoop()

	logrus.Info("herodraft-journal service started.")
	<-js.ctx.Done()
	js.flushBatchToDB()
	logrus.Info("herodraft-journal shutting down.")
}

// readRedisLoop continuously uses BLPop to retrieve records from the Redis queue.
func (js *JournalService) readRedisLoop() {
	ticker := time.NewTicker(js.flushDelay)
	defer ticker.Stop()

	queueName := getEnv("JOURNAL_QUEUE_NAME", cache.DefaultQueueName)

	for {
		select {
		case <-js.ctx.Done():
			return

		case <-ticker.C:
			js.flushBatchToDB()

		default:
			// BLPop with a short timeout so context cancellation is noticed.
			res, err := js.redisClient.BLPop(js.ctx, 3*time.Second, queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if js.ctx.Err() != nil {
					return
				}
				logrus.Errorf("BLPop: %v", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.DraftEventRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				logrus.Warnf("invalid draft event record: %v", err)
				continue
			}
			js.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the threshold is reached.
func (js *JournalService) appendToBatch(record cache.DraftEventRecord) {
	js.batchMu.Lock()
	defer js.batchMu.Unlock()

	js.batch = append(js.batch, record)
	if len(js.batch) >= js.batchSize {
		js.flushBatchLocked()
	}
}

// flushBatchToDB flushes the current batch to the database in a single transaction.
func (js *JournalService) flushBatchToDB() {
	js.batchMu.Lock()
	defer js.batchMu.Unlock()
	js.flushBatchLocked()
}

func (js *JournalService) flushBatchLocked() {
	if len(js.batch) == 0 {
		return
	}
	batchCopy := make([]cache.DraftEventRecord, len(js.batch))
	copy(batchCopy, js.batch)
	js.batch = js.batch[:0]

	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batchCopy {
			if err := insertDraftEventTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertDraftEventTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("flushBatchToDB: %v", err)
	} else {
		logrus.Infof("Flushed %d draft events to DB.", len(batchCopy))
	}
}

// insertDraftEventTx inserts a single event record into the draft_events table.
func insertDraftEventTx(ctx context.Context, tx pgx.Tx, rec cache.DraftEventRecord) error {
	q := `
		INSERT INTO draft_events (lobby_id, event_type, payload, recorded_at)
		VALUES ($1, $2, $3, to_timestamp($4::double precision / 1000))
	`
	_, err := tx.Exec(ctx, q, rec.LobbyID, rec.EventType, []byte(rec.Payload), rec.Timestamp)
	return err
}

// Stop gracefully stops the journal service.
func (js *JournalService) Stop() {
	js.cancelFn()
}

func main() {
	js := NewJournalService()
	go js.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	js.Stop()
	logrus.Info("Journal shutdown complete.")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
