package backend

import (
	"context"
	"fmt"
	"time"

	"chapterhub/internal/datastore/memory"
	"chapterhub/internal/storage"
)

// SeedIfEmpty imports the seed from dataDir (or the demo chapter) into repo
// when it holds no chapters. It reports whether anything was imported.
func SeedIfEmpty(ctx context.Context, repo *storage.SQLiteRepository, dataDir string, now time.Time) (bool, error) {
	chapters, err := repo.ListChapters(ctx)
	if err != nil {
		return false, err
	}
	if len(chapters) > 0 {
		return false, nil
	}

	seed, _ := memory.ReadSeed(dataDir, now)
	return true, importSeed(ctx, repo, seed)
}

func importSeed(ctx context.Context, repo *storage.SQLiteRepository, seed memory.Seed) error {
	for _, u := range seed.Users {
		if err := repo.CreateUser(ctx, u); err != nil {
			return err
		}
	}
	for _, c := range seed.Chapters {
		if err := repo.CreateChapter(ctx, c); err != nil {
			return err
		}
	}
	for _, r := range seed.Roles {
		if err := repo.CreateRole(ctx, r); err != nil {
			return err
		}
	}
	for userID, m := range seed.Members {
		if err := repo.AddMember(ctx, userID, m.ChapterID, m.RoleID); err != nil {
			return err
		}
	}
	for _, b := range seed.Budgets {
		if _, err := repo.CreateBudget(ctx, b); err != nil {
			return err
		}
	}
	for _, e := range seed.Expenses {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			return fmt.Errorf("expense %s: %w", e.ID, err)
		}
	}
	for _, ev := range seed.Events {
		if _, err := repo.CreateEvent(ctx, ev); err != nil {
			return err
		}
	}
	for _, t := range seed.Tasks {
		if _, err := repo.CreateTask(ctx, t); err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
	}
	for _, n := range seed.Notifications {
		if _, err := repo.CreateNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
