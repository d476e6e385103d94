package commands

import (
	"fmt"
	"os"
	"strings"
)

// Completion provides shell completion scripts for bash and zsh.
// Usage:
//
//	rkb completion           # prints completions for all supported shells
//	rkb completion bash      # prints bash completion
//	rkb completion zsh       # prints zsh completion
func Completion(args []string) error {
	shell := ""
	if len(args) > 0 {
		shell = strings.ToLower(args[0])
	}

	switch shell {
	case "bash":
		printBashCompletion()
		return nil
	case "zsh":
		printZshCompletion()
		return nil
	case "", "all":
		// Print both so Homebrew's generator can detect them
		printBashCompletion()
		fmt.Println()
		printZshCompletion()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "unknown shell: %s (supported: bash, zsh)\n", shell)
		return fmt.Errorf("unsupported shell: %s", shell)
	}
}

func printBashCompletion() {
	fmt.Println(`# bash completion for rkb
_rkb_completions()
{
    local cur prev words cword
    _init_completion || return

    local -a commands
    commands=(
        key verify inspect watch completion help version
    )

    case ${COMP_CWORD} in
        1)
            COMPREPLY=( $(compgen -W "${commands[*]}" -- "$cur") )
            return ;;
        *)
            case ${COMP_WORDS[1]} in
                key)
                    COMPREPLY=( $(compgen -W "--workspace --format --no-strict" -- "$cur") ) ;;
                verify)
                    COMPREPLY=( $(compgen -W "--workspace --expect --no-strict" -- "$cur") ) ;;
                inspect)
                    COMPREPLY=( $(compgen -W "--workspace --verbose --no-strict" -- "$cur") ) ;;
                watch)
                    COMPREPLY=( $(compgen -W "--workspace --no-strict" -- "$cur") ) ;;
                completion)
                    COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") ) ;;
                *)
                    COMPREPLY=( $(compgen -W "--verbose --debug" -- "$cur") ) ;;
            esac
            return ;;
    esac
}
complete -F _rkb_completions rkb`)
}

func printZshCompletion() {
	fmt.Println(`#compdef rkb
_rkb() {
  local -a commands
  commands=(
    'key:Compute the rule key for a target in a rule document'
    'verify:Recompute a rule key and compare it against an expected digest'
    'inspect:Compute a rule key while tracing every absorbed field'
    'watch:Recompute rule keys as workspace files change'
    'completion:Generate shell completion scripts'
    'version:Show version'
    'help:Show help'
  )

  _arguments \
    '1: :->cmds' \
    '*:: :->args'

  case $state in
    cmds)
      _describe 'command' commands
      ;;
    args)
      case $words[1] in
        completion)
          _values 'shell' bash zsh
          ;;
        key|verify|inspect|watch)
          _values 'options' --workspace --format --expect --no-strict --debug
          ;;
        *)
          _message 'arguments'
          ;;
      esac
      ;;
  esac
}
_rkb "$@"`)
}
