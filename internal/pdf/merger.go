// Package pdf merges rendered print documents via pdfcpu.
package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/printforge/bindery/internal/order"
)

// Merger combines cover and pages documents into one deliverable PDF.
type Merger struct {
	conf *model.Configuration
}

// New constructs a Merger. Validation is relaxed: render output from the
// upstream engine is occasionally sloppy about optional dictionary entries.
func New() *Merger {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Merger{conf: conf}
}

// Merge returns a single PDF. With both inputs present the result contains
// every cover page in original order followed by every pages-document page
// in original order. With exactly one input present its bytes are returned
// unmodified; no parse, no re-encode. A present input that cannot be parsed
// is a merge failure.
func (m *Merger) Merge(cover, pages []byte) ([]byte, error) {
	switch {
	case len(cover) == 0 && len(pages) == 0:
		return nil, order.E(order.KindMerge, "merge documents", fmt.Errorf("no input documents"))
	case len(cover) == 0:
		return pages, nil
	case len(pages) == 0:
		return cover, nil
	}

	readers := []io.ReadSeeker{bytes.NewReader(cover), bytes.NewReader(pages)}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, m.conf); err != nil {
		return nil, order.E(order.KindMerge, "merge cover and pages", err)
	}
	return buf.Bytes(), nil
}

// PageCount returns the number of pages in doc. Callers use this on the
// pages document only; the cover never contributes to the reported count.
func (m *Merger) PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), m.conf)
	if err != nil {
		return 0, order.E(order.KindMerge, "count pages", err)
	}
	return n, nil
}
