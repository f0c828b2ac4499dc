package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/store"
)

var (
	historyLimit   int
	historyStatus  string
	historyService string
	historyOutput  string
	pruneOlderThan time.Duration
)

var errHistoryDisabled = eris.New("history: disabled (set history.path or WEBFETCH_HISTORY_PATH)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent fetches from the local history",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()
		if env.History == nil {
			return errHistoryDisabled
		}

		filter, err := historyFilter(historyStatus, historyService, historyLimit)
		if err != nil {
			return err
		}
		list, err := env.History.ListFetches(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return writeHistory(cmd.OutOrStdout(), list, historyOutput)
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history entries older than a duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneOlderThan <= 0 {
			return eris.New("history: --older-than must be positive")
		}
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()
		if env.History == nil {
			return errHistoryDisabled
		}

		n, err := env.History.DeleteFetchesBefore(cmd.Context(), time.Now().Add(-pruneOlderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "removed %d entries\n", n)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()
		if env.History == nil {
			return errHistoryDisabled
		}

		rec, err := env.History.GetFetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeFetch(cmd.OutOrStdout(), rec, historyOutput)
	},
}

func historyFilter(status, service string, limit int) (store.FetchFilter, error) {
	f := store.FetchFilter{Limit: limit}
	switch st := model.FetchStatus(strings.ToLower(strings.TrimSpace(status))); st {
	case "":
	case model.FetchStatusDone, model.FetchStatusFailed:
		f.Status = st
	default:
		return f, eris.Errorf("history: unknown status %q", status)
	}
	if service != "" {
		svc := model.Service(strings.TrimSpace(service))
		if !svc.Valid() {
			return f, eris.Errorf("history: unsupported service %q", service)
		}
		f.Service = svc
	}
	return f, nil
}

func writeHistory(w io.Writer, list []model.FetchRecord, format string) error {
	switch strings.ToLower(format) {
	case "json":
		if list == nil {
			list = []model.FetchRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(list), "history: encode json")
	case "", "table":
	default:
		return eris.Errorf("history: unknown output format %q", format)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "no fetches")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "STATUS", "SERVICE", "TITLE", "URL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, rec := range list {
		title := rec.Title
		if rec.Status == model.FetchStatusFailed {
			title = rec.Error
		}
		t.Row(rec.CreatedAt.Local().Format("2006-01-02 15:04"), string(rec.Status), rec.Service.String(), title, rec.URL)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func writeFetch(w io.Writer, rec *model.FetchRecord, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rec), "history: encode json")
	case "", "table":
	default:
		return eris.Errorf("history: unknown output format %q", format)
	}

	rows := [][2]string{
		{"ID", rec.ID},
		{"When", rec.CreatedAt.Local().Format(time.DateTime)},
		{"Status", string(rec.Status)},
		{"Service", rec.Service.String()},
		{"URL", rec.URL},
		{"Notebook", rec.NotebookID},
		{"Title", rec.Title},
		{"Source", rec.SourceURL},
		{"Document", rec.DocID},
		{"Path", rec.Path},
		{"Stage", rec.Stage},
		{"Error", rec.Error},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-9s", row[0])), row[1])
	}
	return nil
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to list")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "filter by status: done or failed")
	historyCmd.Flags().StringVar(&historyService, "service", "", "filter by service: firecrawl or jina")

	historyPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "remove entries older than this")

	historyCmd.PersistentFlags().StringVarP(&historyOutput, "output", "o", "table", "output format: table or json")

	historyCmd.AddCommand(historyPruneCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
