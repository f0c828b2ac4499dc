package main

import (
	"bytes"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/document"
	"github.com/sells-group/webfetch/internal/tui"
)

var dialogCmd = &cobra.Command{
	Use:   "dialog",
	Short: "Open the interactive fetch dialog",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv("cli")
		if err != nil {
			return err
		}
		defer env.Close()

		s, err := env.Settings.Ensure(cmd.Context())
		if err != nil {
			zap.L().Warn("dialog: settings load failed, using defaults", zap.Error(err))
		}

		// Links are printed once the program has released the terminal.
		links := &linkBuffer{}
		d := env.newDialog(env.Labels, document.LinkOpener{W: links})

		_, err = tui.Run(cmd.Context(), d, s,
			tea.WithContext(cmd.Context()),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), links.Drain())
		return nil
	},
}

// linkBuffer collects links from fetches that may still be running after the
// program exits. Writes after Drain are dropped.
type linkBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	drained bool
}

func (b *linkBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drained {
		return len(p), nil
	}
	return b.buf.Write(p)
}

// Drain returns the collected links and stops accepting more.
func (b *linkBuffer) Drain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drained = true
	return b.buf.String()
}

func init() {
	rootCmd.AddCommand(dialogCmd)
}
