// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `tusks completion` command. Completion
// of `tusks run` descends into the declared command tree.
func newCompletionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tusks.

` + SubtitleStyle.Render("Bash:") + `
  eval "$(tusks completion bash)"

` + SubtitleStyle.Render("Zsh:") + `
  tusks completion zsh > "${fpath[1]}/_tusks"

` + SubtitleStyle.Render("Fish:") + `
  tusks completion fish > ~/.config/fish/completions/tusks.fish

` + SubtitleStyle.Render("PowerShell:") + `
  tusks completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := app.stdout
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}
