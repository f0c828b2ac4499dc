package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/webfetch/internal/i18n"
	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/notebook"
	"github.com/sells-group/webfetch/internal/settings"
	"github.com/sells-group/webfetch/internal/tui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the stored fetch settings",
}

var settingsOutput string

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings with the API key masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()
		s, err := env.Settings.Ensure(cmd.Context())
		if err != nil {
			return err
		}
		return writeSettings(cmd.OutOrStdout(), settings.Masked(s), settingsOutput)
	},
}

func writeSettings(w io.Writer, s model.PluginSettings, format string) error {
	switch strings.ToLower(format) {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return eris.Wrap(err, "settings: encode yaml")
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(s), "settings: encode json")
	default:
		return eris.Errorf("settings: unknown output format %q", format)
	}
}

var (
	setAPIKey   string
	setEndpoint string
	setService  string
	setNotebook string
	setAutoOpen bool
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more settings",
	Example: `  webfetch settings set --api-key fc-123 --service firecrawl
  webfetch settings set --endpoint http://localhost:3002 --auto-open=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}

		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if patch.DefaultNotebookID != nil && *patch.DefaultNotebookID != "" {
			warnUnknownNotebook(cmd, env, *patch.DefaultNotebookID)
		}

		if _, err := env.Settings.Update(cmd.Context(), patch); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), tui.SuccessStyle().Render(env.Labels.Get(i18n.SettingsSaved)))
		return nil
	},
}

// patchFromFlags builds a patch from the flags that were set.
func patchFromFlags(cmd *cobra.Command) (settings.Patch, error) {
	var p settings.Patch
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		p.FirecrawlAPIKey = &setAPIKey
	}
	if flags.Changed("endpoint") {
		p.FirecrawlEndpoint = &setEndpoint
	}
	if flags.Changed("service") {
		svc := model.Service(strings.TrimSpace(setService))
		if !svc.Valid() {
			return p, eris.Errorf("settings: unsupported service %q", setService)
		}
		p.DefaultService = &svc
	}
	if flags.Changed("notebook") {
		p.DefaultNotebookID = &setNotebook
	}
	if flags.Changed("auto-open") {
		p.AutoOpenNote = &setAutoOpen
	}
	if p.Empty() {
		return p, eris.New("settings: nothing to set")
	}
	return p, nil
}

func warnUnknownNotebook(cmd *cobra.Command, env *appEnv, id string) {
	list, err := env.Notebooks.Refresh(cmd.Context(), false)
	if err != nil {
		zap.L().Warn("settings: could not verify notebook", zap.Error(err))
		return
	}
	if _, ok := notebook.Find(list, id); !ok {
		zap.L().Warn("settings: notebook not found", zap.String("notebook", id))
	}
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()
		if err := env.Settings.Save(cmd.Context(), settings.Defaults()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), tui.SuccessStyle().Render(env.Labels.Get(i18n.SettingsSaved)))
		return nil
	},
}

var settingsUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Delete the stored settings record",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()
		if err := env.Settings.Remove(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "removed %s\n", env.Storage.Path())
		return nil
	},
}

func init() {
	settingsShowCmd.Flags().StringVarP(&settingsOutput, "output", "o", "yaml", "output format: yaml or json")

	settingsSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "Firecrawl API key")
	settingsSetCmd.Flags().StringVar(&setEndpoint, "endpoint", "", "Firecrawl endpoint or base URL (empty for the hosted API)")
	settingsSetCmd.Flags().StringVar(&setService, "service", "", "default service: firecrawl or jina")
	settingsSetCmd.Flags().StringVar(&setNotebook, "notebook", "", "default notebook id")
	settingsSetCmd.Flags().BoolVar(&setAutoOpen, "auto-open", true, "open the note after fetching")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd, settingsUninstallCmd)
	rootCmd.AddCommand(settingsCmd)
}
