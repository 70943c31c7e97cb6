package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"termescape/internal/app"
	"termescape/internal/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cfg app.Config

var rootCmd = &cobra.Command{
	Use:   "termescape",
	Short: "Terminal Escape - a Linux terminal escape room",
	Long: `Terminal Escape is a puzzle game played at a fake shell prompt.

Solve five Linux-themed rooms: crack a login, dig through a file system,
hunt down malware, fix permissions and bring a network back online.

Settings can also come from TERMESCAPE_* environment variables or a .env
file in the working directory. Flags win over both.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	_ = godotenv.Load()

	cfg = app.DefaultConfig()
	if err := app.LoadEnv(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for saves, profiles and stats (default: user data dir)")
	flags.StringVar(&cfg.LogPath, "log-file", cfg.LogPath, "Write JSON event logs to this file")
	flags.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Use the line-oriented interface instead of the full-screen one")
	flags.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "Draw with ASCII characters only")
	flags.StringVar(&cfg.Theme, "theme", cfg.Theme, "Color theme: "+strings.Join(ui.ThemeNames(), ", "))
	flags.BoolVar(&cfg.Sound, "sound", cfg.Sound, "Ring the terminal bell on game events")
	flags.BoolVar(&cfg.ReducedMotion, "reduced-motion", cfg.ReducedMotion, "Disable animations")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Log UI panics and debug details")
}

func run(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Plain = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
