package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"legacy_migrator/internal/adapters/images"
	"legacy_migrator/internal/adapters/legacy"
	"legacy_migrator/internal/adapters/observability"
	"legacy_migrator/internal/adapters/progress"
	"legacy_migrator/internal/app"
	"legacy_migrator/internal/domain"
	"legacy_migrator/internal/shared"
	mysqlrepo "legacy_migrator/internal/storage/mysql"
)

// Headless runner: migrates one account's hotels and tails the progress
// channel until the run completes. Useful for scripted migrations and for
// smoke-testing a new legacy store without the UI.
func main() { os.Exit(run()) }

// run carries the whole lifecycle so deferred cleanup still fires when a
// failed run maps to a non-zero exit code.
func run() int {
	var (
		partner    = flag.String("partner", "", "target partner id")
		account    = flag.Int64("account", 0, "legacy account id")
		hotelsCSV  = flag.String("hotels", "", "comma-separated legacy hotel ids")
		performer  = flag.String("by", "cli", "who triggered the run")
		legacyURI  = flag.String("uri", "", "legacy store URI (overrides LEGACY_MONGO_URI)")
		skipPhotos = flag.Bool("skip-photos", false, "skip photo download for all hotels")
		timeout    = flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	)
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	hotels, err := parseHotels(*hotelsCSV, *skipPhotos)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -hotels")
	}

	uri := *legacyURI
	if uri == "" {
		uri = cfg.LegacyURI
	}
	if uri == "" {
		log.Fatal().Msg("no legacy URI: pass -uri or set LEGACY_MONGO_URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	conn := legacy.NewManager(cfg.LegacyURI, cfg.LegacyDB, log.Logger)
	store := legacy.NewStore(conn)
	fetcher, err := images.New(cfg.MediaDir, cfg.ImageRPS, cfg.ImageWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("media dir init failed")
	}
	publisher := progress.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	svc := app.NewMigrationService(conn, store, mysqlrepo.New(db), mysqlrepo.NewHistory(db),
		fetcher, publisher, log.Logger)

	if _, err := conn.Connect(ctx, uri); err != nil {
		log.Fatal().Err(err).Msg("legacy connect failed")
	}
	defer func() { _, _ = conn.Disconnect(context.Background()) }()

	// subscribe before starting so the first events are not lost; the
	// operation id is only known after Migrate returns, so match on a
	// pattern and filter
	sub := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	defer sub.Close()
	ps := sub.PSubscribe(ctx, progress.Topic("*"))
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		log.Error().Err(err).Msg("progress subscribe failed")
		return 1
	}

	opID, err := svc.Migrate(ctx, app.MigrateRequest{
		Partner:     *partner,
		PerformedBy: *performer,
		AccountID:   *account,
		Hotels:      hotels,
	})
	if err != nil {
		log.Error().Err(err).Msg("migration rejected")
		return 1
	}
	fmt.Printf("operation %s started (%d hotels)\n", opID, len(hotels))

	code := tail(ctx, ps.Channel(), opID)
	svc.Wait()
	return code
}

func parseHotels(csv string, skipPhotos bool) ([]app.HotelConfig, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, fmt.Errorf("at least one hotel id is required")
	}
	var out []app.HotelConfig
	for _, part := range strings.Split(csv, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid hotel id %q", part)
		}
		out = append(out, app.HotelConfig{OldHotelID: id, SkipPhotos: skipPhotos})
	}
	return out, nil
}

// tail prints the run's events and returns the process exit code: 0 unless
// the run finished failed.
func tail(ctx context.Context, ch <-chan *redis.Message, opID string) int {
	for {
		select {
		case <-ctx.Done():
			fmt.Println("timed out waiting for completion; the run continues server-side")
			return 0
		case msg, ok := <-ch:
			if !ok {
				return 0
			}
			var ev domain.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("unreadable progress event")
				continue
			}
			if ev.OperationID != opID {
				continue
			}
			printEvent(ev)
			if ev.Type == "complete" {
				if status, _ := ev.Data["status"].(string); status == domain.RunFailed {
					return 1
				}
				return 0
			}
		}
	}
}

func printEvent(ev domain.ProgressEvent) {
	switch ev.Type {
	case "started":
		fmt.Printf("run started: account %v (%v), %v hotels\n",
			ev.Data["accountId"], ev.Data["accountName"], ev.Data["totalHotels"])
	case "hotel:start":
		fmt.Printf("  hotel %v ...\n", ev.Data["legacyHotelId"])
	case "hotel:complete":
		fmt.Printf("  hotel %v (%v): %v\n",
			ev.Data["legacyHotelId"], ev.Data["name"], ev.Data["status"])
		if errs, ok := ev.Data["errors"].([]any); ok {
			for _, e := range errs {
				fmt.Printf("    error: %v\n", e)
			}
		}
	case "complete":
		fmt.Printf("run finished: %v\n", ev.Data["status"])
	default:
		fmt.Printf("  %s\n", ev.Type)
	}
}
