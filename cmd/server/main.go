// cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/draftforge/herodraft/internal/auth"
	"github.com/draftforge/herodraft/internal/cache"
	"github.com/draftforge/herodraft/internal/database"
	"github.com/draftforge/herodraft/internal/draft"
	"github.com/draftforge/herodraft/internal/handlers"
	"github.com/draftforge/herodraft/internal/hub"
	"github.com/draftforge/herodraft/internal/matchapi"
	"github.com/draftforge/herodraft/internal/middleware"
)

func main() {
	// With key paths set, sessions survive restarts; otherwise a fresh
	// key pair is generated and every restart logs everyone out.
	if priv, pub := os.Getenv("AUTH_KEY_PRIVATE_PATH"), os.Getenv("AUTH_KEY_PUBLIC_PATH"); priv != "" && pub != "" {
		if err := auth.InitFromPath(priv, pub); err != nil {
			log.Fatalf("failed to load auth keys: %v", err)
		}
	} else {
		auth.Init()
	}
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	journal := hub.JournalFn(nil)
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, draft events will not be journaled: %v", err)
	} else {
		journal = func(lobbyID uuid.UUID, ev draft.Event) {
			go func() {
				payload, err := json.Marshal(ev)
				if err != nil {
					logger.Warnf("failed to encode %s event for journal: %v", ev.Type, err)
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				rec := cache.DraftEventRecord{
					LobbyID:   lobbyID,
					EventType: string(ev.Type),
					Payload:   payload,
					Timestamp: time.Now().UnixMilli(),
				}
				if err := cache.PublishDraftEvent(ctx, rec); err != nil {
					logger.Warnf("failed to journal %s event: %v", ev.Type, err)
				}
			}()
		}
	}

	eventHub := hub.New(hub.WithLogger(logger), hub.WithJournal(journal))

	store := database.NewPgStore()
	coordinator := draft.New(store, store, eventHub, matchapi.NewFromEnv(), draft.WithLogger(logger))

	server := handlers.NewServer(coordinator, eventHub, logger)
	handler := middleware.LogMiddleware(logger)(server.Routes())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
