package handlers

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/ardanlabs/peerledger/foundation/web"
)

//go:embed assets/index.html
var indexHTML string

type index struct {
	page []byte
}

// newIndex renders the page once with the event urls of the nodes to watch.
func newIndex(nodes []string) (index, error) {
	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return index{}, err
	}

	var b bytes.Buffer
	if err := tmpl.Execute(&b, struct{ Nodes []string }{nodes}); err != nil {
		return index{}, err
	}

	return index{page: b.Bytes()}, nil
}

func (ig index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(ig.page)

	return err
}
