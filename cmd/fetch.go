package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/webfetch/internal/document"
	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/pipeline"
)

var (
	fetchService  string
	fetchNotebook string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a page and create a note from it",
	Long:  "Runs one fetch dialog submit without the interactive form. Statuses go to stderr; the document link goes to stdout when auto-open is enabled.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return runFetch(cmd, env, pipeline.Request{
			URL:        args[0],
			Service:    model.Service(fetchService),
			NotebookID: fetchNotebook,
		})
	},
}

func runFetch(cmd *cobra.Command, env *appEnv, req pipeline.Request) error {
	d := env.newDialog(env.Labels, document.LinkOpener{W: cmd.OutOrStdout()})
	rep := &lineReporter{w: cmd.ErrOrStderr()}

	_, err := d.Submit(cmd.Context(), req, rep)
	return err
}

func init() {
	fetchCmd.Flags().StringVar(&fetchService, "service", "", "scraping service: firecrawl or jina (default from settings)")
	fetchCmd.Flags().StringVar(&fetchNotebook, "notebook", "", "target notebook id (default from settings)")
	rootCmd.AddCommand(fetchCmd)
}
