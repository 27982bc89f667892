package cli

import (
	"github.com/spf13/cobra"

	"github.com/kingrea/secondbrain/internal/hooks"
)

// newHookCmd creates the hook parent command. Handlers are called by the
// agent host, not by people, so the whole subtree is hidden from help.
func newHookCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hook",
		Short:  "Agent hook handlers",
		Args:   cobra.NoArgs,
		Hidden: true,
	}
	for _, name := range hooks.Names() {
		cmd.AddCommand(newHookHandlerCmd(rt, name))
	}
	return cmd
}

func newHookHandlerCmd(rt *runtime, name string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: "Run the " + name + " hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logDir := rt.start()
			log := rt.logger(logDir)
			defer log.Close()

			env := hooks.DefaultEnv(rt.projectDir(), log)
			env.Stdin = cmd.InOrStdin()
			env.Stdout = cmd.OutOrStdout()
			env.Cwd = rt.cwd
			env.Now = rt.now

			code, err := hooks.Run(cmd.Context(), name, env)
			if err != nil {
				return err
			}
			if code != hooks.ExitContinue {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}
