// Command zipatch-apply is a minimal driver around package zipatch: it
// decodes a patch file, reports what it would change, and optionally
// applies it against a game installation directory.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/distr1/zipatch"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
)

var (
	gamePath     = flag.String("game_path", "", "root directory of the game installation to patch")
	patchPath    = flag.String("patch", "", "path to a ZiPatch file")
	platform     = flag.String("platform", "win32", "target platform: win32, ps3, ps4 or unknown")
	dryRun       = flag.Bool("dry_run", false, "decode and report the change set without writing anything")
	summaryPath  = flag.String("summary", "", "optional path to write a plain-text summary of what was applied")
	retryTries   = flag.Int("retry_tries", sqpack.DefaultRetryTries, "how many times to retry opening a locked pack file")
	useFileCache = flag.Bool("file_cache", true, "keep pack file handles open across commands during apply")
)

func parsePlatform(s string) (sqex.Platform, error) {
	switch strings.ToLower(s) {
	case "win32":
		return sqex.PlatformWin32, nil
	case "ps3":
		return sqex.PlatformPS3, nil
	case "ps4":
		return sqex.PlatformPS4, nil
	case "unknown":
		return sqex.PlatformUnknown, nil
	default:
		return 0, xerrors.Errorf("unrecognized -platform %q", s)
	}
}

func run() error {
	flag.Parse()
	if *patchPath == "" {
		return xerrors.New("-patch is required")
	}
	if *gamePath == "" {
		return xerrors.New("-game_path is required")
	}
	plat, err := parsePlatform(*platform)
	if err != nil {
		return err
	}

	p, err := zipatch.Open(*patchPath)
	if err != nil {
		return xerrors.Errorf("opening patch: %w", err)
	}

	counts, err := p.ActualCounts()
	if err != nil {
		return xerrors.Errorf("tallying patch contents: %w", err)
	}
	changeSet, err := p.ChangeSet(plat)
	if err != nil {
		return xerrors.Errorf("deriving change set: %w", err)
	}

	log.Printf("patch %s: %d total commands (add=%d delete=%d expand=%d header=%d file=%d dirs=%d/%d)",
		*patchPath, counts.Total(), counts.SqpkAdd, counts.SqpkDelete, counts.SqpkExpand,
		counts.SqpkHeader, counts.SqpkFile, counts.AddDirectories, counts.DeleteDirectories)
	log.Printf("change set: %d added, %d modified, %d deleted", len(changeSet.Added), len(changeSet.Modified), len(changeSet.Deleted))

	if *summaryPath != "" {
		if err := writeSummary(*summaryPath, *patchPath, counts, changeSet); err != nil {
			return xerrors.Errorf("writing summary: %w", err)
		}
	}

	if *dryRun {
		return nil
	}

	cfg := sqpack.NewConfig(*gamePath, plat)
	cfg.RetryTries = *retryTries
	if *useFileCache {
		cache := sqpack.NewFileCache(cfg.RetryTries, cfg.RetryDelay)
		zipatch.RegisterFileCacheClose(cache)
		cfg.WithOpenFileCache(cache)
	}

	ctx, cancel := zipatch.InterruptibleContext()
	defer cancel()
	if err := p.ApplyAllContext(ctx, cfg); err != nil {
		return xerrors.Errorf("applying patch: %w", err)
	}
	return nil
}

func writeSummary(path, patchPath string, counts zipatch.Counts, cs *zipatch.ChangeSet) error {
	var b strings.Builder
	fmt.Fprintf(&b, "patch: %s\n", patchPath)
	fmt.Fprintf(&b, "generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "total commands: %d\n", counts.Total())
	fmt.Fprintf(&b, "added (%d):\n", len(cs.Added))
	for _, name := range cs.Added {
		fmt.Fprintf(&b, "  + %s\n", name)
	}
	fmt.Fprintf(&b, "modified (%d):\n", len(cs.Modified))
	for _, name := range cs.Modified {
		fmt.Fprintf(&b, "  ~ %s\n", name)
	}
	fmt.Fprintf(&b, "deleted (%d):\n", len(cs.Deleted))
	for _, name := range cs.Deleted {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	return renameio.WriteFile(path, []byte(b.String()), 0644)
}

func main() {
	err := run()
	if exitErr := zipatch.RunAtExit(); exitErr != nil && err == nil {
		err = exitErr
	}
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(0)
}
