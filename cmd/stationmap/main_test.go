package main

import (
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/ratana-tep/stationmap/internal/config"
)

func serveConfigFor(t *testing.T, args ...string) config.Config {
	t.Helper()

	var got config.Config
	app := &cli.App{
		Commands: []*cli.Command{{
			Name: "serve",
			Flags: []cli.Flag{
				dbFlag(),
				&cli.StringFlag{Name: "addr"},
			},
			Action: func(c *cli.Context) error {
				got = serverConfig(c)
				return nil
			},
		}},
	}

	if err := app.Run(append([]string{"stationmap", "serve"}, args...)); err != nil {
		t.Fatalf("app.Run() failed: %v", err)
	}
	return got
}

func TestServerConfigEnvReachable(t *testing.T) {
	t.Setenv("DB_PATH", "env.db")
	t.Setenv("ADDR", "127.0.0.1:9999")

	cfg := serveConfigFor(t)
	// The db flag's default value must not mask the environment.
	if cfg.DBPath != "env.db" {
		t.Errorf("DBPath = %q, want env.db", cfg.DBPath)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %q, want 127.0.0.1:9999", cfg.Addr)
	}
}

func TestServerConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("DB_PATH", "env.db")
	t.Setenv("ADDR", "127.0.0.1:9999")

	cfg := serveConfigFor(t, "--db", "flag.db", "--addr", "0.0.0.0:8000")
	if cfg.DBPath != "flag.db" {
		t.Errorf("DBPath = %q, want flag.db", cfg.DBPath)
	}
	if cfg.Addr != "0.0.0.0:8000" {
		t.Errorf("Addr = %q, want 0.0.0.0:8000", cfg.Addr)
	}
}
