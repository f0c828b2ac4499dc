package document

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// DeepLink returns the URL that opens a block in the desktop app.
func DeepLink(id string) string {
	return "siyuan://blocks/" + id
}

// LinkOpener opens documents by writing their deep link to W.
type LinkOpener struct {
	W io.Writer
}

// Open writes the deep link for id.
func (o LinkOpener) Open(_ context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return eris.New("document: open: empty id")
	}
	if _, err := fmt.Fprintln(o.W, DeepLink(id)); err != nil {
		return eris.Wrap(err, "document: open")
	}
	return nil
}
