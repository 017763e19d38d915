package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chapterhub/internal/config"
	"chapterhub/internal/datastore/memory"
	"chapterhub/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.DataDirectory != "data" || !cfg.SeedEmpty {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Publisher != nil {
		t.Fatal("no publisher expected without AMQP URL")
	}
	if _, err := res.Backend.GetUser(context.Background(), memory.DemoUserID); err != nil {
		t.Fatalf("demo user missing: %v", err)
	}
}

func TestFactory_SQLiteSeedsOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "hub.db"), DataDirectory: dir, SeedEmpty: true}

	res, err := NewFactory(nil).CreateBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	ctx := context.Background()
	chapterID, _, err := res.Backend.Membership(ctx, memory.DemoUserID)
	if err != nil {
		t.Fatalf("Membership: %v", err)
	}
	tasks, err := res.Backend.ListTasks(ctx, chapterID)
	if err != nil || len(tasks) == 0 {
		t.Fatalf("tasks = %d, %v", len(tasks), err)
	}
	if err := res.Backend.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	seeded, err := SeedIfEmpty(ctx, repo, dir, time.Now())
	if err != nil || seeded {
		t.Fatalf("second seed = %v, %v; want no-op", seeded, err)
	}
}
