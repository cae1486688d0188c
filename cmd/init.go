package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knoweval/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize knoweval configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose a provider, model and knowledge folder, and writes a .knoweval.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
