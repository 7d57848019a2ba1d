package cli

import (
	"github.com/spf13/cobra"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "List registered signals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := newRegistry(configStore)
		defer registry.Clear()
		for _, name := range registry.Names() {
			cmd.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}
