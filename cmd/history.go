package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knoweval/internal/session"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history <file> [record]",
	Short: "List or show archived evaluations of a knowledge file",
	Long: `Without a record name, lists the archived evaluations of a file, oldest
first. With one, prints that evaluation.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		file := args[0]
		if len(args) == 1 {
			records, err := a.archive.List(file)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Printf("No evaluations found for %s.\n", file)
				return nil
			}
			for _, name := range records {
				info, err := a.archive.Info(file, name)
				if err != nil {
					return err
				}
				fmt.Printf("%-40s %10s  %s\n", name, info.SizeLabel(), info.ModifiedLabel())
			}
			return nil
		}

		rec, err := a.archive.Load(file, args[1])
		if err != nil {
			return err
		}
		if historyJSON {
			os.Stdout.Write(rec.Raw)
			fmt.Println()
			return nil
		}
		printSections(session.SectionsFor(rec.Result, string(rec.Raw)))
		if rec.Model != "" {
			fmt.Printf("\nModel: %s  Focus: %s  Evaluated: %s\n", rec.Model, rec.Focus, rec.Timestamp.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print the stored JSON document")
	rootCmd.AddCommand(historyCmd)
}
