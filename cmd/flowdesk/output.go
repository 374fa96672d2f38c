package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/flowdesk/pkg/pager"
	"github.com/Sternrassler/flowdesk/pkg/workflow"
)

// Output formats of list commands.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	currentStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// column renders one field of T in table output.
type column[T any] struct {
	header string
	value  func(T) string
}

// listing describes how a collection is fetched and shown.
type listing[T any] struct {
	noun     string
	singular string
	columns  []column[T]
	fields   []func(T) string
}

type listOptions struct {
	page   int
	search string
	output string
}

func (o *listOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.page, "page", 1, "Page to show")
	cmd.Flags().StringVarP(&o.search, "search", "s", "", "Only rows containing this text")
	cmd.Flags().StringVarP(&o.output, "output", "o", formatTable, "Output format (table, csv, json)")
}

func (o *listOptions) validate() error {
	switch o.output {
	case formatTable, formatCSV, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, csv or json)", o.output)
	}
}

// show filters items, pages them client-side and renders the current page.
func (l listing[T]) show(cmd *cobra.Command, a *app, opts listOptions, items []T) error {
	p := pager.New(items, a.cfg.PageSize)
	p.FilterChanged(workflow.Filter(items, opts.search, l.fields...))
	p.ChangePage(opts.page)

	a.logger.Debug().
		Int("items", len(items)).
		Int("matches", p.Len()).
		Int("page", p.CurrentPage()).
		Int("total_pages", p.TotalPages()).
		Msgf("Listing %s", l.noun)

	w := out(cmd)
	rows := p.CurrentItems()

	switch opts.output {
	case formatJSON:
		if err := writeJSON(w, rows); err != nil {
			return err
		}
	case formatCSV:
		if err := gocsv.Marshal(rows, w); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	default:
		if p.Len() == 0 {
			fmt.Fprintf(w, "No %s found.\n", l.noun)
			return nil
		}
		fmt.Fprintln(w, l.table(rows))
		fmt.Fprintln(w, pageBar(p, a.cfg.Window))
		return nil
	}

	// csv and json get the page bar on stderr.
	fmt.Fprintln(cmd.ErrOrStderr(), pageBar(p, a.cfg.Window))
	return nil
}

func (l listing[T]) table(rows []T) string {
	headers := lo.Map(l.columns, func(c column[T], _ int) string { return c.header })
	cells := lo.Map(rows, func(item T, _ int) []string {
		return lo.Map(l.columns, func(c column[T], _ int) string { return c.value(item) })
	})

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

// pageBar renders "Page 2 of 7 (134 items)  < 1 [2] 3 4 5 >".
func pageBar[T any](p *pager.Pager[T], window int) string {
	if p.Len() == 0 {
		return "0 items"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Page %d of %d (%d items)", p.CurrentPage(), p.TotalPages(), p.Len())
	if p.TotalPages() <= 1 {
		return b.String()
	}

	b.WriteString("  ")
	if p.HasPrev() {
		b.WriteString("< ")
	}
	nums := lo.Map(p.VisiblePageNumbers(window), func(n, _ int) string {
		if n == p.CurrentPage() {
			return currentStyle.Render("[" + strconv.Itoa(n) + "]")
		}
		return strconv.Itoa(n)
	})
	b.WriteString(strings.Join(nums, " "))
	if p.HasNext() {
		b.WriteString(" >")
	}
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
