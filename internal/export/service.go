// Package export bundles the payment advices of a batch into a zip archive.
package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

// ErrNothingToExport is returned for a batch without approved invoices.
var ErrNothingToExport = errors.New("batch has no approved invoices")

// SummaryName is the archive entry listing every exported advice.
const SummaryName = "summary.txt"

type Converter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

// Item is one advice in the archive.
type Item struct {
	Line     *payment.Line
	FileName string
	pdf      []byte
}

// Service renders and converts advices for a whole batch.
type Service struct {
	payments  *payment.Service
	renderer  *advice.Renderer
	converter Converter
	workers   int
}

// NewService creates a new export Service. workers bounds how many advices
// are converted at once.
func NewService(payments *payment.Service, renderer *advice.Renderer, converter Converter, workers int) *Service {
	if workers <= 0 {
		workers = 4
	}

	return &Service{
		payments:  payments,
		renderer:  renderer,
		converter: converter,
		workers:   workers,
	}
}

// Export writes a zip holding the advice PDF of every approved line of the
// batch, followed by a summary. It returns the exported items in line order.
func (s *Service) Export(ctx context.Context, t tenant.Tenant, batchID uuid.UUID, w io.Writer) ([]Item, error) {
	b, err := s.payments.GetBatch(ctx, t, batchID)
	if err != nil {
		return nil, err
	}

	items, err := s.build(ctx, b)
	if err != nil {
		return nil, err
	}

	zw := zip.NewWriter(w)

	for _, item := range items {
		f, err := zw.Create(item.FileName)
		if err != nil {
			return nil, fmt.Errorf("creating entry %s: %w", item.FileName, err)
		}

		if _, err := f.Write(item.pdf); err != nil {
			return nil, fmt.Errorf("writing entry %s: %w", item.FileName, err)
		}
	}

	f, err := zw.Create(SummaryName)
	if err != nil {
		return nil, fmt.Errorf("creating summary: %w", err)
	}

	if _, err := io.WriteString(f, Summary(b, items)); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}

	return items, nil
}

func (s *Service) build(ctx context.Context, b *payment.Batch) ([]Item, error) {
	var lines []*payment.Line

	for _, l := range b.Lines {
		if l.Status == payment.StatusApproved {
			lines = append(lines, l)
		}
	}

	if len(lines) == 0 {
		return nil, ErrNothingToExport
	}

	items := make([]Item, len(lines))
	used := make(map[string]int, len(lines))

	for i, l := range lines {
		items[i] = Item{Line: l, FileName: uniqueName(used, fileName(l))}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range items {
		g.Go(func() error {
			html, err := s.renderer.Render(gctx, b, items[i].Line)
			if err != nil {
				return err
			}

			data, err := s.converter.Convert(gctx, string(html))
			if err != nil {
				return fmt.Errorf("converting advice %s: %w", items[i].FileName, err)
			}

			items[i].pdf = data

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

// fileName derives an archive entry name from the line's reference.
func fileName(l *payment.Line) string {
	ref := l.RefNo
	if ref == "" {
		ref = l.InvoiceNo
	}

	if ref == "" {
		ref = l.ID.String()
	}

	return fmt.Sprintf("%s_%s.pdf", sanitize(ref), sanitize(l.RecipientName))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, strings.TrimSpace(s))
}

// uniqueName returns name, or name with the next free _N suffix when it is
// already taken. Suffixed names are reserved too so a later line whose own
// name matches one of them is renamed in turn.
func uniqueName(used map[string]int, name string) string {
	if used[name] == 0 {
		used[name] = 1
		return name
	}

	base := strings.TrimSuffix(name, ".pdf")

	for n := used[name] + 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d.pdf", base, n)
		if used[candidate] == 0 {
			used[name] = n
			used[candidate] = 1

			return candidate
		}
	}
}

// Summary lists the exported advices, one per line.
func Summary(b *payment.Batch, items []Item) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "UTR %s | %s\n", b.UTR, advice.FormatDate(b.TransactionDate))

	for _, item := range items {
		fmt.Fprintf(&sb, "* %s | %s | %s | %s\n",
			item.Line.InvoiceNo,
			item.Line.RecipientName,
			advice.FormatMoney(advice.Aggregate(item.Line).Net),
			item.FileName,
		)
	}

	return sb.String()
}
