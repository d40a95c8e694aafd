// Command accessaudit prints the unexported fields, methods and constructor
// candidates of the types in the given packages, which are the members tests
// can only reach by registering them.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cretz/testaccessor/accessor/audit"
	"golang.org/x/tools/go/packages"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger, os.Stdout, os.Args[1:]); err != nil {
		logger.Error("audit failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, out io.Writer, args []string) error {
	flags := flag.NewFlagSet("accessaudit", flag.ContinueOnError)
	configPath := flags.String("config", "", "YAML config file")
	dir := flags.String("dir", "", "Directory to load packages from, default is the current one")
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if flags.NArg() > 0 {
		cfg.Patterns = flags.Args()
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"./..."}
	}

	logger.Info("loading packages", "patterns", cfg.Patterns, "tests", cfg.Tests)
	surfaces, err := audit.LoadSurfaces(&packages.Config{Dir: *dir, Tests: cfg.Tests}, cfg.Patterns...)
	if err != nil {
		return err
	}
	printed := 0
	for _, s := range surfaces {
		if cfg.ignored(s.Key()) {
			logger.Debug("ignoring type", "type", s.Key())
			continue
		}
		printSurface(out, s)
		printed++
	}
	logger.Info("audit complete", "types", printed, "ignored", len(surfaces)-printed)
	return nil
}

func printSurface(out io.Writer, s *audit.TypeSurface) {
	fmt.Fprintln(out, s.Key())
	for _, section := range []struct {
		name  string
		names []string
	}{{"fields", s.Fields}, {"methods", s.Methods}, {"constructors", s.Constructors}} {
		if len(section.names) > 0 {
			fmt.Fprintf(out, "  %v: %v\n", section.name, strings.Join(section.names, ", "))
		}
	}
}
