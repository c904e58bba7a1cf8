// Command export-reports dumps recent analysis reports from Postgres into a
// CSV blob in the configured storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"claimlens-backend/config"
	"claimlens-backend/repository"
	"claimlens-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	limit := flag.Int("limit", 100, "maximum number of reports to export")
	name := flag.String("name", "", "blob name (default reports-<date>.csv)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer pool.Close()

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	repo := repository.NewReportRepository(pool)
	records, err := repo.List(ctx, *limit)
	if err != nil {
		log.Fatal("Failed to list reports:", err)
	}
	if len(records) == 0 {
		log.Println("No reports to export")
		return
	}

	header := []string{"id", "video_id", "title", "status", "claims", "summary", "created_at"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID.String(),
			rec.VideoID,
			rec.Title,
			string(rec.Status),
			strconv.Itoa(len(rec.Report.Claims)),
			rec.Report.Summary,
			rec.CreatedAt.Format(time.RFC3339),
		})
	}

	blobName := *name
	if blobName == "" {
		blobName = fmt.Sprintf("reports-%s.csv", time.Now().UTC().Format("2006-01-02"))
	}

	if err := storage.ExportCSV(ctx, store, blobName, header, rows); err != nil {
		log.Fatal("Failed to export CSV:", err)
	}

	log.Printf("Exported %d reports to %s", len(rows), blobName)
}
