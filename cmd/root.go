package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "knoweval",
	Short: "AI feedback on your personal knowledge notes",
	Long: `knoweval keeps a folder of plain-text knowledge notes and asks a
language model to critique them: what is right, what is wrong, and what to
study next. Every evaluation is archived as JSON next to your notes.

Use it from the terminal, from the browser dashboard (knoweval server), or
from an AI agent over MCP (knoweval serve).`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".knoweval.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
