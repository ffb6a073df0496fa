package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/maprix/maprix/internal/api"
	"github.com/maprix/maprix/internal/serverdb"
)

func runAdmin(args []string) {
	if len(args) == 0 {
		printAdminUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		runAdminMigrate(args[1:])
	case "rate-limits":
		runAdminRateLimits(args[1:])
	case "cleanup":
		runAdminCleanup(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown admin command: %s\n", args[0])
		printAdminUsage()
		os.Exit(1)
	}
}

func printAdminUsage() {
	fmt.Fprintln(os.Stderr, `Usage: maprix-server admin <command> [flags]

Commands:
  migrate      Create or upgrade the database and print its schema version
  rate-limits  List recent rate limit rejections
  cleanup      Delete rate limit events past retention`)
}

func openDB(dbPath string) *serverdb.ServerDB {
	if dbPath == "" {
		dbPath = api.LoadConfig().DBPath
	}
	store, err := serverdb.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open database: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runAdminMigrate(args []string) {
	fs := flag.NewFlagSet("admin migrate", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to maprix.db (default: from MAPRIX_DB_PATH or ./data/maprix.db)")
	fs.Parse(args)

	store := openDB(*dbPath)
	defer store.Close()

	n, err := store.RunMigrations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("schema version %d (%d migrations applied)\n", serverdb.ServerSchemaVersion, n)
}

func runAdminRateLimits(args []string) {
	fs := flag.NewFlagSet("admin rate-limits", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to maprix.db")
	limit := fs.Int("limit", 20, "number of events to show")
	fs.Parse(args)

	store := openDB(*dbPath)
	defer store.Close()

	events, err := store.RecentRateLimitEvents(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(events) == 0 {
		fmt.Println("no rate limit events")
		return
	}
	for _, e := range events {
		fmt.Printf("%s  %-15s  %s\n", e.CreatedAt, e.IP, e.EndpointClass)
	}
}

func runAdminCleanup(args []string) {
	fs := flag.NewFlagSet("admin cleanup", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to maprix.db")
	fs.Parse(args)

	cfg := api.LoadConfig()
	store := openDB(*dbPath)
	defer store.Close()

	n, err := store.CleanupRateLimitEvents(cfg.RateLimitEventRetention)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("deleted %d rate limit events older than %s\n", n, cfg.RateLimitEventRetention)
}
