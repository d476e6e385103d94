package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rulekeybuilder/internal/config"
	"rulekeybuilder/internal/rulekey"
	"rulekeybuilder/internal/ruledoc"
	"rulekeybuilder/internal/watch"
)

// Watch recomputes a rule document's target RuleKey whenever a file
// under the workspace changes, printing a line each time the digest
// flips. It runs until interrupted (Ctrl-C / SIGTERM).
//
// Usage: rkb watch [--workspace DIR] [--no-strict] <rule.json>
func Watch(args []string, cfg *config.Config) error {
	opts, err := parseWatchFlags(args, cfg)
	if err != nil {
		return err
	}
	if opts.showHelp {
		showWatchHelp()
		return nil
	}

	resolver, err := rulekey.NewPathResolver(opts.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace %s: %w", opts.workspace, err)
	}
	oracle := rulekey.NewCachingOracle()

	recompute := func() (rulekey.RuleKey, string, error) {
		data, err := os.ReadFile(opts.docPath)
		if err != nil {
			return rulekey.RuleKey{}, "", fmt.Errorf("reading rule document %s: %w", opts.docPath, err)
		}
		doc, err := ruledoc.Decode(data)
		if err != nil {
			return rulekey.RuleKey{}, "", fmt.Errorf("decoding rule document: %w", err)
		}
		rule, err := ruledoc.Build(doc)
		if err != nil {
			return rulekey.RuleKey{}, "", fmt.Errorf("resolving rule graph: %w", err)
		}
		key, err := rulekey.ComputeRuleKey(rule, resolver, oracle, opts.strict, nil)
		if err != nil {
			return rulekey.RuleKey{}, "", fmt.Errorf("computing rule key: %w", err)
		}
		return key, rule.Target.FullyQualifiedName(), nil
	}

	key, target, err := recompute()
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s (initial)\n", key.String(), target)

	w, err := watch.New(opts.workspace, oracle)
	if err != nil {
		return fmt.Errorf("starting watcher on %s: %w", opts.workspace, err)
	}
	defer w.Close()

	w.OnChange = func(changed []string) {
		newKey, newTarget, err := recompute()
		if err != nil {
			fmt.Fprintf(os.Stderr, "rkb watch: %v\n", err)
			return
		}
		if newKey != key {
			fmt.Printf("%s  %s (changed: %s)\n", newKey.String(), newTarget, changed[0])
			key = newKey
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = w.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

type watchOptions struct {
	docPath   string
	workspace string
	strict    bool
	showHelp  bool
}

func parseWatchFlags(args []string, cfg *config.Config) (watchOptions, error) {
	opts := watchOptions{workspace: ".", strict: true}
	if cfg != nil {
		if cfg.WorkspaceRoot != "" {
			opts.workspace = cfg.WorkspaceRoot
		}
		opts.strict = cfg.StrictCollections
	}

	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			opts.showHelp = true
		case "--workspace":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--workspace requires a directory argument")
			}
			opts.workspace = args[i+1]
			i++
		case "--no-strict":
			opts.strict = false
		default:
			positional = append(positional, args[i])
		}
	}
	if !opts.showHelp {
		if len(positional) != 1 {
			return opts, fmt.Errorf("expected exactly one rule document argument, got %d", len(positional))
		}
		opts.docPath = positional[0]
	}
	return opts, nil
}

func showWatchHelp() {
	fmt.Println(`rkb watch - Recompute a rule key as workspace files change

USAGE:
    rkb watch [OPTIONS] <rule.json>

OPTIONS:
    -h, --help           Show this help message
    --workspace DIR       Workspace root to watch and resolve source paths against
    --no-strict           Tolerate unordered collections instead of rejecting them

rkb watch prints the target's initial RuleKey, then watches the
workspace recursively and reprints whenever a filesystem change causes
the digest to flip. Press Ctrl-C to stop.`)
}
