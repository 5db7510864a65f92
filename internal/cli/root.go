package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/config"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/logging"

	// registers the tesseract OCR engine for letter art the built-in font cannot read
	_ "github.com/brandonhippe/Advent-of-Code-Runner/internal/ocr/tesseract"
)

// Version and Commit are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app is the state shared by every subcommand.
type app struct {
	root       string
	configFile string
	debug      bool
	quiet      bool

	// now decides which puzzles are released.
	now calendar.Clock

	settings *config.Settings
}

// configPath resolves --config against --root.
func (a *app) configPath() string {
	if filepath.IsAbs(a.configFile) {
		return a.configFile
	}
	return filepath.Join(a.root, a.configFile)
}

// stateDir is <root>/.aoc.
func (a *app) stateDir() string {
	return filepath.Join(a.root, config.StateDir)
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	root, err := filepath.Abs(a.root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	a.root = root
	InitLogger(root, a.debug, a.quiet)

	settings, err := config.Load(a.configPath())
	if err != nil {
		return err
	}
	settings.Resolve(root)
	logging.AddSecret(settings.Cookie)
	a.settings = settings
	return nil
}

func NewRootCmd() *cobra.Command {
	a := &app{now: time.Now}
	run := newRunCmd(a)

	root := &cobra.Command{
		Use:   "aoc",
		Short: "Run Advent of Code solutions",
		Long: `aoc builds and runs Advent of Code solutions written in any configured
language, checks their answers against adventofcode.com, and keeps answer
and runtime tables, READMEs and charts up to date.

Without a subcommand it behaves like "aoc run".`,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { CloseLogFile() },
		RunE:              run.RunE,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.root, "root", ".", "solutions repository root")
	pf.StringVar(&a.configFile, "config", config.DefaultFile, "path to config file (relative to --root)")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "only log warnings and errors")
	root.MarkFlagsMutuallyExclusive("debug", "quiet")

	// flags are shared, so "aoc -y 2023" and "aoc run -y 2023" agree
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run)
	root.AddCommand(newFetchCmd(a))
	root.AddCommand(newAnswersCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newLanguagesCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newStateCmd(a))
	root.AddCommand(newUnlockCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}
