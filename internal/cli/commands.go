package cli

import (
	"rulekeybuilder/internal/cli/commands"
	"rulekeybuilder/internal/config"
)

type keyCmd struct{ cfg *config.Config }

func (keyCmd) Name() string        { return "key" }
func (keyCmd) Description() string { return "Compute rule keys from a rule document" }
func (c keyCmd) Run(args []string) error {
	return commands.Key(args, c.cfg)
}

// NewKeyCommand constructs the key command, bound to the CLI's loaded config.
func NewKeyCommand(cfg *config.Config) Command { return keyCmd{cfg: cfg} }

type verifyCmd struct{ cfg *config.Config }

func (verifyCmd) Name() string        { return "verify" }
func (verifyCmd) Description() string { return "Recompute a rule key and compare it against an expected digest" }
func (c verifyCmd) Run(args []string) error {
	return commands.Verify(args, c.cfg)
}

// NewVerifyCommand constructs the verify command, bound to the CLI's loaded config.
func NewVerifyCommand(cfg *config.Config) Command { return verifyCmd{cfg: cfg} }

type inspectCmd struct{ cfg *config.Config }

func (inspectCmd) Name() string        { return "inspect" }
func (inspectCmd) Description() string { return "Compute a rule key while tracing every absorbed field" }
func (c inspectCmd) Run(args []string) error {
	return commands.Inspect(args, c.cfg)
}

// NewInspectCommand constructs the inspect command, bound to the CLI's loaded config.
func NewInspectCommand(cfg *config.Config) Command { return inspectCmd{cfg: cfg} }

type watchCmd struct{ cfg *config.Config }

func (watchCmd) Name() string        { return "watch" }
func (watchCmd) Description() string { return "Recompute rule keys as workspace files change" }
func (c watchCmd) Run(args []string) error {
	return commands.Watch(args, c.cfg)
}

// NewWatchCommand constructs the watch command, bound to the CLI's loaded config.
func NewWatchCommand(cfg *config.Config) Command { return watchCmd{cfg: cfg} }

type completionCmd struct{}

func (completionCmd) Name() string        { return "completion" }
func (completionCmd) Description() string { return "Generate shell completion scripts" }
func (completionCmd) Run(args []string) error {
	return commands.Completion(args)
}

// NewCompletionCommand constructs the completion command.
func NewCompletionCommand() Command { return completionCmd{} }
