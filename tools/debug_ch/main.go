// debug_ch inspects the fight archive directly: nights present, fight counts
// per night, and the raw fights for one night when passed as an argument.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/guildops/bench-api/internal/store"
)

func main() {
	chURL := os.Getenv("BENCH_CLICKHOUSE_URL")
	if chURL == "" {
		chURL = "clickhouse://localhost:9000/bench"
	}

	opts, err := clickhouse.ParseDSN(chURL)
	if err != nil {
		log.Fatalf("Failed to parse DSN: %v", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open connection: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	archive := store.NewFightArchive(conn)

	if len(os.Args) > 1 {
		nightID := os.Args[1]
		fights, err := archive.FightsForNight(ctx, nightID)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		for _, f := range fights {
			fmt.Printf("%s fight %d diff %d %s..%s %d players\n",
				f.Name, f.FightID, f.Difficulty,
				time.UnixMilli(f.StartMs).Format("15:04:05"),
				time.UnixMilli(f.EndMs).Format("15:04:05"),
				len(f.Participants))
		}
		return
	}

	nights, err := archive.Nights(ctx)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	for _, night := range nights {
		fights, err := archive.FightsForNight(ctx, night)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		fmt.Printf("%s: %d fights\n", night, len(fights))
	}
}
