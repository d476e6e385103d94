package commands

import (
	"fmt"
	"os"
	"strings"

	"rulekeybuilder/internal/config"
	"rulekeybuilder/internal/rulekey"
	"rulekeybuilder/internal/ruledoc"
	"rulekeybuilder/pkg/logger"
)

// Inspect computes a rule document's target RuleKey the same way Key
// does, but always routes a rulekey.LoggerSink through the builder so
// every field pushed, value absorbed, path hashed, and rule registered
// is printed at debug level — the structured event trace used to sanity
// check a rule key by hand.
//
// Usage: rkb inspect [--workspace DIR] [--no-strict] <rule.json>
//
// Verbose tracing is on whenever --verbose is passed or RKB_DEBUG=1 is
// set; otherwise inspect behaves like key but still initializes a
// LoggerSink so -v can be added without recomputing anything.
func Inspect(args []string, cfg *config.Config) error {
	opts, verbose, err := parseInspectFlags(args, cfg)
	if err != nil {
		return err
	}
	if opts.showHelp {
		showInspectHelp()
		return nil
	}

	if verbose || strings.EqualFold(os.Getenv("RKB_DEBUG"), "1") {
		logger.Initialize(true, true)
		defer logger.Close()
	}

	data, err := os.ReadFile(opts.docPath)
	if err != nil {
		return fmt.Errorf("reading rule document %s: %w", opts.docPath, err)
	}
	doc, err := ruledoc.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding rule document: %w", err)
	}
	rule, err := ruledoc.Build(doc)
	if err != nil {
		return fmt.Errorf("resolving rule graph: %w", err)
	}

	resolver, err := rulekey.NewPathResolver(opts.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace %s: %w", opts.workspace, err)
	}
	oracle := rulekey.NewCachingOracle()

	key, err := rulekey.ComputeRuleKey(rule, resolver, oracle, opts.strict, rulekey.LoggerSink{})
	if err != nil {
		return fmt.Errorf("computing rule key: %w", err)
	}

	fmt.Printf("%s  %s\n", key.String(), rule.Target.FullyQualifiedName())
	return nil
}

type inspectOptions struct {
	docPath   string
	workspace string
	strict    bool
	showHelp  bool
}

func parseInspectFlags(args []string, cfg *config.Config) (inspectOptions, bool, error) {
	opts := inspectOptions{workspace: ".", strict: true}
	verbose := false
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
		case "--verbose":
			verbose = true
		case "--workspace":
			if i+1 >= len(args) {
				return opts, verbose, fmt.Errorf("--workspace requires a directory argument")
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
			return opts, verbose, fmt.Errorf("expected exactly one rule document argument, got %d", len(positional))
		}
		opts.docPath = positional[0]
	}
	return opts, verbose, nil
}

func showInspectHelp() {
	fmt.Println(`rkb inspect - Compute a RuleKey while tracing every absorbed field

USAGE:
    rkb inspect [OPTIONS] <rule.json>

OPTIONS:
    -h, --help           Show this help message
    --workspace DIR       Workspace root filesystem source paths are resolved against
    --verbose             Print the structured event trace (push/absorb/path/rule events)
    --no-strict           Tolerate unordered collections instead of rejecting them

Tracing is also enabled by setting RKB_DEBUG=1. Use this to sanity-check
why two rule documents that look alike produced different rule keys.`)
}
