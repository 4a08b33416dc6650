package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// BuildVersion is set at link time with -ldflags "-X main.BuildVersion=..."
var BuildVersion = "dev"

type Globals struct {
	Config  string           `help:"YAML configuration file." type:"existingfile" env:"FLOODCHECK_CONFIG"`
	Verbose bool             `short:"v" help:"Log skipped files and per-image errors." env:"FLOODCHECK_VERBOSE"`
	Version kong.VersionFlag `help:"Print version and exit."`
}

type CLI struct {
	Globals

	Analyze AnalyzeCmd `cmd:"" default:"withargs" help:"Classify the screenshots of a directory (default)."`
	Plan    PlanCmd    `cmd:"" help:"Write a test plan or check a screenshot directory against one."`
	Synth   SynthCmd   `cmd:"" help:"Write synthetic screenshots for a test plan."`
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("[!] Could not load .env: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("floodcheck"),
		kong.Description("Detects the flood overlay in rendered map screenshots."),
		kong.UsageOnError(),
		kong.Vars{"version": BuildVersion},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	if err := kctx.Run(&cli.Globals); err != nil {
		cancel()
		log.Fatalf("[-] %v", err)
	}
}

func success(format string, args ...any) {
	fmt.Printf("[+++] "+format+"\n", args...)
}
