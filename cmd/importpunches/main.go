package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/utils"
	"gorm.io/gorm"
)

// importpunches loads a CSV export from a time-clock terminal into an open
// work-session. Expected columns: card_id, direction, punched_at.
func main() {
	_ = godotenv.Load()

	file := flag.String("file", "", "CSV export from the terminal")
	session := flag.String("session", "", "work session id to attach the punches to")
	tenant := flag.String("tenant", "", "tenant schema")
	flag.Parse()

	if *file == "" || *session == "" || *tenant == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *file, err)
		os.Exit(1)
	}
	defer f.Close()

	records, err := utils.ParseCSV(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Parsed %d rows\n", len(records))

	dm, err := core.New(os.Getenv("DSN"), 5)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer dm.Close()

	imported, skipped := 0, 0
	err = dm.Exec(context.Background(), *tenant, func(db *gorm.DB) error {
		for i, rec := range records {
			if len(rec) < 3 {
				fmt.Printf("row %d: expected card_id,direction,punched_at, got %d columns\n", i+1, len(rec))
				skipped++
				continue
			}
			cardID, direction, ts := rec[0], rec[1], rec[2]
			if cardID == "card_id" {
				// header row
				continue
			}

			punchedAt, err := utils.ParseISOTime(ts)
			if err != nil {
				fmt.Printf("row %d: bad timestamp %q\n", i+1, ts)
				skipped++
				continue
			}

			var worker core.Worker
			if err := db.First(&worker, "card_id = ?", cardID).Error; err != nil {
				fmt.Printf("row %d: no worker with card %q\n", i+1, cardID)
				skipped++
				continue
			}

			_, err = core.RecordPunch(db, core.Punch{
				WorkSessionID: *session,
				WorkerID:      worker.ID,
				Direction:     direction,
				PunchedAt:     punchedAt.UTC(),
			})
			if err != nil {
				fmt.Printf("row %d: %v\n", i+1, err)
				skipped++
				continue
			}
			imported++
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d punches, skipped %d\n", imported, skipped)
}
