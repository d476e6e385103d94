package commands

import (
	"fmt"
	"os"

	"rulekeybuilder/internal/config"
	"rulekeybuilder/internal/rulekey"
	"rulekeybuilder/internal/ruledoc"
)

// Verify recomputes one or two rule documents' RuleKeys and reports
// whether they match — either two documents against each other, or one
// document against an --expect hex digest.
//
// Usage:
//
//	rkb verify [--workspace DIR] [--no-strict] <a.json> <b.json>
//	rkb verify [--workspace DIR] [--no-strict] --expect HEXDIGEST <a.json>
func Verify(args []string, cfg *config.Config) error {
	opts, err := parseVerifyFlags(args, cfg)
	if err != nil {
		return err
	}
	if opts.showHelp {
		showVerifyHelp()
		return nil
	}

	resolver, err := rulekey.NewPathResolver(opts.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace %s: %w", opts.workspace, err)
	}
	oracle := rulekey.NewCachingOracle()

	keyA, targetA, err := computeDocumentKey(opts.docs[0], resolver, oracle, opts.strict)
	if err != nil {
		return fmt.Errorf("computing rule key for %s: %w", opts.docs[0], err)
	}

	if opts.expect != "" {
		match := keyA.String() == opts.expect
		fmt.Printf("%s  %s\n", keyA.String(), targetA)
		if match {
			fmt.Println("MATCH")
			return nil
		}
		fmt.Printf("MISMATCH (expected %s)\n", opts.expect)
		return fmt.Errorf("rule key mismatch: got %s, expected %s", keyA.String(), opts.expect)
	}

	keyB, targetB, err := computeDocumentKey(opts.docs[1], resolver, oracle, opts.strict)
	if err != nil {
		return fmt.Errorf("computing rule key for %s: %w", opts.docs[1], err)
	}

	fmt.Printf("%s  %s (%s)\n", keyA.String(), targetA, opts.docs[0])
	fmt.Printf("%s  %s (%s)\n", keyB.String(), targetB, opts.docs[1])
	if keyA == keyB {
		fmt.Println("MATCH")
		return nil
	}
	fmt.Println("MISMATCH")
	return fmt.Errorf("rule keys differ between %s and %s", opts.docs[0], opts.docs[1])
}

func computeDocumentKey(path string, resolver *rulekey.PathResolver, oracle *rulekey.CachingOracle, strict bool) (rulekey.RuleKey, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rulekey.RuleKey{}, "", err
	}
	doc, err := ruledoc.Decode(data)
	if err != nil {
		return rulekey.RuleKey{}, "", err
	}
	rule, err := ruledoc.Build(doc)
	if err != nil {
		return rulekey.RuleKey{}, "", err
	}
	key, err := rulekey.ComputeRuleKey(rule, resolver, oracle, strict, nil)
	if err != nil {
		return rulekey.RuleKey{}, "", err
	}
	return key, rule.Target.FullyQualifiedName(), nil
}

type verifyOptions struct {
	docs      []string
	expect    string
	workspace string
	strict    bool
	showHelp  bool
}

func parseVerifyFlags(args []string, cfg *config.Config) (verifyOptions, error) {
	opts := verifyOptions{workspace: ".", strict: true}
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
		case "--expect":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--expect requires a hex digest argument")
			}
			opts.expect = args[i+1]
			i++
		case "--no-strict":
			opts.strict = false
		default:
			positional = append(positional, args[i])
		}
	}
	if opts.showHelp {
		return opts, nil
	}
	if opts.expect != "" {
		if len(positional) != 1 {
			return opts, fmt.Errorf("--expect takes exactly one rule document argument, got %d", len(positional))
		}
	} else if len(positional) != 2 {
		return opts, fmt.Errorf("expected two rule document arguments (or one with --expect), got %d", len(positional))
	}
	opts.docs = positional
	return opts, nil
}

func showVerifyHelp() {
	fmt.Println(`rkb verify - Recompute rule keys and compare them

USAGE:
    rkb verify [OPTIONS] <a.json> <b.json>
    rkb verify [OPTIONS] --expect HEXDIGEST <a.json>

OPTIONS:
    -h, --help           Show this help message
    --workspace DIR       Workspace root filesystem source paths are resolved against
    --expect HEXDIGEST    Compare a single document's rule key against an expected digest
    --no-strict           Tolerate unordered collections instead of rejecting them

Exit status is non-zero when the rule keys do not match.`)
}
