// migrate runs the postgres document-store migrations from embedded SQL.
// Only useful with STORAGE_BACKEND=postgres; the server also migrates up
// automatically on startup, so this exists mainly for down migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"cognito-emulator/internal/config"
	"cognito-emulator/internal/storage"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	if err := storage.Migrate(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, storage.ErrNoChange) {
			// Already at target version; success.
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
