package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-demo/internal/config"
	"todo-demo/internal/database"
	"todo-demo/internal/models"
	"todo-demo/pkg/logger"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var lists, items, batchSize int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bulk-load lists and items into the postgres backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			logger.Configure(cfg.LogLevel, cfg.LogFormat, nil)
			ctx := cmd.Context()

			db := database.DB(ctx)
			if db == nil {
				return errors.New("DATABASE_URL not set or DB connection failed")
			}
			if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
				return fmt.Errorf("schema: %w", err)
			}

			start := time.Now()
			total, err := seed(ctx, db, lists, items, batchSize)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done: %d lists, %d items in %v\n", lists, total, time.Since(start))
			return nil
		},
	}
	cmd.Flags().IntVar(&lists, "lists", 100, "number of lists")
	cmd.Flags().IntVar(&items, "items", 100, "items per list")
	cmd.Flags().IntVar(&batchSize, "batch", 500, "rows per INSERT")
	return cmd
}

func seed(ctx context.Context, db *sql.DB, lists, perList, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	listIDs := make([]int64, 0, lists)
	for off := 0; off < lists; off += batchSize {
		n := min(batchSize, lists-off)
		args := make([]interface{}, 0, n)
		placeholders := make([]string, 0, n)
		for i := 0; i < n; i++ {
			placeholders = append(placeholders, fmt.Sprintf("($%d)", i+1))
			args = append(args, fmt.Sprintf("List %d", off+i+1))
		}
		rows, err := db.QueryContext(ctx, `INSERT INTO lists (title) VALUES `+strings.Join(placeholders, ",")+` RETURNING id`, args...)
		if err != nil {
			return 0, fmt.Errorf("insert lists: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return 0, err
			}
			listIDs = append(listIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, err
		}
	}

	total := 0
	args := make([]interface{}, 0, batchSize*3)
	placeholders := make([]string, 0, batchSize)
	flush := func() error {
		if len(placeholders) == 0 {
			return nil
		}
		q := `INSERT INTO items (list_id, title, priority) VALUES ` + strings.Join(placeholders, ",")
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
		total += len(placeholders)
		fmt.Printf("\rInserted %d / %d", total, len(listIDs)*perList)
		args, placeholders = args[:0], placeholders[:0]
		return nil
	}
	for _, listID := range listIDs {
		for j := 0; j < perList; j++ {
			k := 3 * len(placeholders)
			placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d)", k+1, k+2, k+3))
			args = append(args, listID, fmt.Sprintf("Item %d", j+1), models.Priorities[j%len(models.Priorities)])
			if len(placeholders) == batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	if total > 0 {
		fmt.Println()
	}
	return total, nil
}
