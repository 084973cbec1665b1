// Package document renders the worklist as a .docx with one page per order:
// the customer note on top, a rule, then the first product's title and
// description, and the order number in small grey print.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"

	"autoparse/internal/model"
)

// DefaultOutputDir is used when Options.OutputDir is empty.
const DefaultOutputDir = "output"

// ContentType is the MIME type of a .docx file.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// OrderSource provides the worklist.
type OrderSource interface {
	Untracked(ctx context.Context) ([]model.Order, error)
}

// ProductSource looks up product descriptions. Lookups are best-effort.
type ProductSource interface {
	FetchProduct(ctx context.Context, productID *int64) model.ProductLookup
}

// Options configures a Generator.
type Options struct {
	OutputDir string
	Now       func() time.Time
	Logger    *slog.Logger
}

// File is a rendered document: where it was saved and the bytes written there.
type File struct {
	Path string
	Data []byte
}

// Name returns the file's base name.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Generator builds and saves the order document.
type Generator struct {
	orders    OrderSource
	products  ProductSource
	outputDir string
	now       func() time.Time
	logger    *slog.Logger
}

// NewGenerator creates a generator reading the worklist from orders and
// descriptions from products.
func NewGenerator(orders OrderSource, products ProductSource, opts Options) *Generator {
	g := &Generator{
		orders:    orders,
		products:  products,
		outputDir: opts.OutputDir,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if g.outputDir == "" {
		g.outputDir = DefaultOutputDir
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g
}

// FileName returns the output file name for the given day.
// One file per calendar day: re-running on the same day overwrites it.
func FileName(t time.Time) string {
	return "orders_" + t.Format(time.DateOnly) + ".docx"
}

// Path returns where today's document is written.
func (g *Generator) Path() string {
	return filepath.Join(g.outputDir, FileName(g.now()))
}

// Generate fetches the worklist and writes the document.
func (g *Generator) Generate(ctx context.Context) (*File, error) {
	orders, err := g.orders.Untracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching worklist: %w", err)
	}
	return g.Assemble(ctx, orders)
}

// Assemble renders the given worklist and saves it. The returned File holds
// the exact bytes saved, so callers never re-read a path another request may
// be replacing. An empty worklist is an error: there is nothing to print.
func (g *Generator) Assemble(ctx context.Context, orders []model.Order) (*File, error) {
	if len(orders) == 0 {
		return nil, model.NewEmptyWorklistError()
	}

	doc, err := g.Build(ctx, orders)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	path := g.Path()
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return nil, err
	}

	g.logger.Info("order document written",
		slog.String("path", path),
		slog.Int("orders", len(orders)),
		slog.Int("bytes", buf.Len()),
	)
	return &File{Path: path, Data: buf.Bytes()}, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path. Readers see either the old file or the new one.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".orders-*.docx")
	if err != nil {
		return fmt.Errorf("creating temp document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Build renders the worklist in reverse order, one block per order, with a
// page break between blocks. The input slice is not modified.
func (g *Generator) Build(ctx context.Context, orders []model.Order) (*docx.RootDoc, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	reversed := slices.Clone(orders)
	slices.Reverse(reversed)

	for i := range reversed {
		g.renderOrder(ctx, doc, &reversed[i])

		if i < len(reversed)-1 {
			doc.AddPageBreak()
		}
	}
	return doc, nil
}

func (g *Generator) renderOrder(ctx context.Context, doc *docx.RootDoc, order *model.Order) {
	addBlankLine(doc)
	addLines(centered(doc), CleanNote(order.CustomerNote), true)
	addBlankLine(doc)
	addSeparator(doc)
	addBlankLine(doc)

	item, ok := order.FirstLineItem()
	centered(doc).AddText(item.Name).Bold(true)

	if ok && item.HasProduct() {
		if desc := g.description(ctx, order.ID, item.ProductID); desc != "" {
			addLines(centered(doc), strings.Split(desc, "\n"), false)
		}
	}

	addBlankLine(doc)

	centered(doc).AddText("Order: " + strconv.FormatInt(order.ID, 10)).
		Size(8).
		Color("888888")
}

// description returns the cleaned product description, or "" when the
// product is absent, the lookup failed, or the text is blank.
func (g *Generator) description(ctx context.Context, orderID int64, productID *int64) string {
	lookup := g.products.FetchProduct(ctx, productID)
	if lookup.Status == model.LookupFailed {
		g.logger.Warn("rendering order without description",
			slog.Int64("order_id", orderID),
			slog.Int64("product_id", *productID),
			slog.Any("error", lookup.Err),
		)
	}

	desc := CleanHTML(lookup.Description())
	if strings.TrimSpace(desc) == "" {
		return ""
	}
	return desc
}

func centered(doc *docx.RootDoc) *docx.Paragraph {
	p := doc.AddEmptyParagraph()
	p.Justification(stypes.JustificationCenter)
	return p
}

func addBlankLine(doc *docx.RootDoc) {
	centered(doc).AddText("")
}

// addLines writes one run per line with a line break after every line but
// the last. Word ignores newlines inside w:t.
func addLines(p *docx.Paragraph, lines []string, bold bool) {
	for i, line := range lines {
		r := p.AddText(line)
		if bold {
			r.Bold(true)
		}
		if i < len(lines)-1 {
			r.AddBreak(nil)
		}
	}
}

// addSeparator draws a full-width rule as the bottom border of an empty paragraph.
func addSeparator(doc *docx.RootDoc) {
	size, space, color := 8, "0", "000000"
	centered(doc).GetCT().Property.Border = &ctypes.ParaBorder{
		Bottom: &ctypes.Border{
			Val:   stypes.BorderStyleSingle,
			Size:  &size,
			Space: &space,
			Color: &color,
		},
	}
}
