// Package renderer turns run results and validation reports into markdown
// for terminal display.
package renderer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/finbricklab/finbrick"
	md "github.com/nao1215/markdown"
)

// RunMarkdown renders a run result as a markdown report: yearly totals,
// per-MacroBrick aggregates and run diagnostics.
func RunMarkdown(res *finbrick.RunResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Projection %s (%d months, %s)", res.Timeline, res.Timeline.Months(), res.Currency))

	doc.H2("Yearly Totals")
	years, cashIn, cashOut, netCF, assets, liabilities, equity := res.Totals.Resample()
	rows := make([][]string, 0, len(years))
	for i, year := range years {
		rows = append(rows, []string{
			fmt.Sprintf("%d", year),
			amount(cashIn[i]),
			amount(cashOut[i]),
			amount(netCF[i]),
			amount(assets[i]),
			amount(liabilities[i]),
			amount(equity[i]),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Year", "Cash In", "Cash Out", "Net CF", "Assets", "Liabilities", "Equity"},
		Rows:   rows,
	})

	if len(res.ByStruct) > 0 {
		doc.H2("MacroBricks")
		ids := make([]string, 0, len(res.ByStruct))
		for id := range res.ByStruct {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			agg := res.ByStruct[id]
			rows = append(rows, []string{
				id,
				amount(agg.CashIn.Sum()),
				amount(agg.CashOut.Sum()),
				amount(agg.AssetValue.Last()),
				amount(agg.DebtBalance.Last()),
			})
		}
		doc.Table(md.TableSet{
			Header: []string{"MacroBrick", "Cash In", "Cash Out", "Final Assets", "Final Debt"},
			Rows:   rows,
		})
	}

	if events := collectEvents(res); len(events) > 0 {
		doc.H2("Events")
		rows := make([][]string, 0, len(events))
		for _, e := range events {
			rows = append(rows, []string{e.On.String(), e.Kind, e.Message})
		}
		doc.Table(md.TableSet{Header: []string{"Month", "Event", "Detail"}, Rows: rows})
	}

	doc.H2("Run")
	doc.PlainText("Execution order: " + strings.Join(res.Meta.ExecutionOrder, ", "))
	for brickID, owners := range res.Meta.Overlaps {
		doc.PlainText(fmt.Sprintf("Overlap: %q selected through %s, executed once", brickID, strings.Join(owners, " and ")))
	}
	for _, w := range res.Meta.Warnings {
		doc.PlainText("Warning: " + w)
	}

	return doc.String()
}

// LedgerMarkdown renders the journal as a markdown table, one row per
// posting.
func LedgerMarkdown(j *finbrick.Journal) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Ledger (%d entries)", j.Len()))
	var rows [][]string
	for e := range j.Entries() {
		for _, p := range e.Postings {
			rows = append(rows, []string{e.On.String(), e.ID, p.Account, p.Amount.SignedString()})
		}
	}
	doc.Table(md.TableSet{Header: []string{"Month", "Entry", "Account", "Amount"}, Rows: rows})
	return doc.String()
}

// ReportMarkdown renders a registry validation report.
func ReportMarkdown(report *finbrick.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	if report.IsValid() {
		doc.H1("Validation passed")
	} else {
		doc.H1("Validation failed")
	}
	bullet := func(items []string) {
		if len(items) > 0 {
			doc.BulletList(items...)
		}
	}
	if len(report.UnknownIDs) > 0 {
		doc.H2("Unknown ids")
		bullet(report.UnknownIDs)
	}
	if len(report.Cycles) > 0 {
		doc.H2("Cycles")
		var items []string
		for _, cycle := range report.Cycles {
			items = append(items, strings.Join(cycle, " -> "))
		}
		bullet(items)
	}
	if len(report.IDConflicts) > 0 {
		doc.H2("Id conflicts")
		bullet(report.IDConflicts)
	}
	if len(report.EmptyMacroBricks) > 0 {
		doc.H2("Empty MacroBricks")
		bullet(report.EmptyMacroBricks)
	}
	if len(report.Overlaps) > 0 {
		doc.H2("Overlaps")
		var ids []string
		for id := range report.Overlaps {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		var items []string
		for _, id := range ids {
			items = append(items, fmt.Sprintf("%q shared by %s", id, strings.Join(report.Overlaps[id], ", ")))
		}
		bullet(items)
	}
	return doc.String()
}

// collectEvents gathers all strategy events across outputs in month order.
func collectEvents(res *finbrick.RunResult) []finbrick.Event {
	var events []finbrick.Event
	for _, id := range res.Meta.ExecutionOrder {
		out, ok := res.Outputs[id]
		if !ok {
			continue
		}
		events = append(events, out.Events...)
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].On.Before(events[b].On) })
	return events
}

func amount(v float64) string { return fmt.Sprintf("%.2f", v) }
