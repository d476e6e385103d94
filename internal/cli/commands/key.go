// Package commands implements the rkb CLI's subcommands: key, verify,
// inspect, watch, and completion.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"rulekeybuilder/internal/config"
	"rulekeybuilder/internal/rulekey"
	"rulekeybuilder/internal/ruledoc"
)

// Key computes the RuleKey of the target named by a rule document's
// "target" field and prints it.
//
// Usage: rkb key [--workspace DIR] [--format text|json] [--no-strict] <rule.json>
func Key(args []string, cfg *config.Config) error {
	opts, err := parseKeyFlags(args, cfg)
	if err != nil {
		return err
	}
	if opts.showHelp {
		showKeyHelp()
		return nil
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

	key, err := rulekey.ComputeRuleKey(rule, resolver, oracle, opts.strict, nil)
	if err != nil {
		return fmt.Errorf("computing rule key: %w", err)
	}

	return printKeyResult(opts.format, rule.Target.FullyQualifiedName(), key)
}

type keyOptions struct {
	docPath   string
	workspace string
	format    string
	strict    bool
	showHelp  bool
}

func parseKeyFlags(args []string, cfg *config.Config) (keyOptions, error) {
	opts := keyOptions{
		workspace: ".",
		format:    "text",
		strict:    true,
	}
	if cfg != nil {
		if cfg.WorkspaceRoot != "" {
			opts.workspace = cfg.WorkspaceRoot
		}
		if cfg.DefaultReportFormat != "" {
			opts.format = cfg.DefaultReportFormat
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
		case "--format":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--format requires text|json")
			}
			opts.format = args[i+1]
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

func printKeyResult(format, target string, key rulekey.RuleKey) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(map[string]string{"target": target, "rule_key": key.String()})
	default:
		fmt.Printf("%s  %s\n", key.String(), target)
		return nil
	}
}

func showKeyHelp() {
	fmt.Println(`rkb key - Compute the RuleKey of a target in a rule document

USAGE:
    rkb key [OPTIONS] <rule.json>

OPTIONS:
    -h, --help           Show this help message
    --workspace DIR       Workspace root filesystem source paths are resolved against
    --format text|json    Output format (default: text)
    --no-strict           Tolerate unordered collections instead of rejecting them

rkb key decodes <rule.json> (see internal/ruledoc) into a rule graph,
resolves the target's RuleKey, and prints it as a hex digest.`)
}
