package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knoweval/internal/audit"
)

var (
	noteContent string
	noteFrom    string
	noteYes     bool
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage knowledge files",
	Long:  `List, show, create, overwrite and delete the .txt notes in the knowledge folder.`,
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		files, err := a.store.ListInfo()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No knowledge files yet. Create one with `knoweval notes create <name>.txt`.")
			return nil
		}
		for _, f := range files {
			fmt.Printf("%-40s %10s  %s\n", f.Name, f.SizeLabel(), f.ModifiedLabel())
		}
		return nil
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the text of a knowledge file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		content, err := a.store.Read(args[0])
		if err != nil {
			return err
		}
		fmt.Print(content)
		return nil
	},
}

var notesInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show size and last modification time of a knowledge file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		info, err := a.store.Stat(args[0])
		if err != nil {
			return err
		}
		records, err := a.archive.List(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("File:          %s\n", info.Name)
		fmt.Printf("Size:          %s\n", info.SizeLabel())
		fmt.Printf("Last modified: %s\n", info.ModifiedLabel())
		fmt.Printf("Evaluations:   %d\n", len(records))
		return nil
	},
}

var notesCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create a new knowledge file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readNoteInput()
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		if _, err := a.newSession(audit.SourceCLI).Create(cmd.Context(), args[0], content); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", args[0])
		return nil
	},
}

var notesWriteCmd = &cobra.Command{
	Use:   "write <file>",
	Short: "Overwrite an existing knowledge file",
	Long:  `Replaces the text of a knowledge file with --content, --from, or standard input. Nothing is written when the text is unchanged.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readNoteInput()
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		saved, err := a.newSession(audit.SourceCLI).Save(cmd.Context(), args[0], content)
		if err != nil {
			return err
		}
		if !saved {
			fmt.Println("No changes to save.")
			return nil
		}
		fmt.Printf("Saved %s\n", args[0])
		return nil
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <file>",
	Short: "Delete a knowledge file (archived evaluations are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		if _, err := a.store.Stat(args[0]); err != nil {
			return err
		}
		if !noteYes {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Delete %s", args[0]),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				if errors.Is(err, promptui.ErrAbort) {
					fmt.Println("Aborted.")
					return nil
				}
				return fmt.Errorf("confirmation: %w", err)
			}
		}

		if err := a.newSession(audit.SourceCLI).Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// readNoteInput returns --content, the file named by --from, or stdin when
// --from is "-".
func readNoteInput() (string, error) {
	switch {
	case noteFrom == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case noteFrom != "":
		data, err := os.ReadFile(noteFrom)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", noteFrom, err)
		}
		return string(data), nil
	default:
		return noteContent, nil
	}
}

func init() {
	for _, c := range []*cobra.Command{notesCreateCmd, notesWriteCmd} {
		c.Flags().StringVar(&noteContent, "content", "", "text of the note")
		c.Flags().StringVar(&noteFrom, "from", "", "read the text from this file (- for stdin)")
		c.MarkFlagsMutuallyExclusive("content", "from")
	}
	notesDeleteCmd.Flags().BoolVarP(&noteYes, "yes", "y", false, "skip the confirmation prompt")

	notesCmd.AddCommand(notesListCmd, notesShowCmd, notesInfoCmd, notesCreateCmd, notesWriteCmd, notesDeleteCmd)
	rootCmd.AddCommand(notesCmd)
}
