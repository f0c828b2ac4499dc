package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sells-group/webfetch/internal/model"
)

var (
	notebooksRefresh bool
	notebooksAll     bool
)

var notebooksCmd = &cobra.Command{
	Use:   "notebooks",
	Short: "List the notebooks documents can be created in",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()

		var list []model.NotebookInfo
		if notebooksAll {
			list, err = env.Notebooks.Refresh(cmd.Context(), notebooksRefresh)
		} else {
			d := env.newDialog(env.Labels, nil)
			list, err = d.FillNotebooks(cmd.Context(), notebooksRefresh, &lineReporter{w: cmd.ErrOrStderr()})
		}
		if err != nil {
			return err
		}

		s := env.Settings.Get()
		if loaded, lerr := env.Settings.Ensure(cmd.Context()); lerr == nil {
			s = loaded
		}
		renderNotebooks(cmd.OutOrStdout(), list, s.DefaultNotebookID)
		return nil
	},
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderNotebooks(w io.Writer, list []model.NotebookInfo, defaultID string) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no notebooks")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "STATE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, nb := range list {
		state := "open"
		if nb.Closed {
			state = "closed"
		}
		name := nb.Name
		if nb.ID == defaultID {
			name += " (default)"
		}
		t.Row(nb.ID, name, state)
	}
	fmt.Fprintln(w, t.Render())
}

func init() {
	notebooksCmd.Flags().BoolVar(&notebooksRefresh, "refresh", false, "bypass the cached list")
	notebooksCmd.Flags().BoolVar(&notebooksAll, "all", false, "include closed notebooks")
	rootCmd.AddCommand(notebooksCmd)
}
