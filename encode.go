package finbrick

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeRunResult writes the run result as one canonical JSON document: field
// order is fixed and map keys are sorted, so identical runs serialize to
// identical bytes.
func EncodeRunResult(w io.Writer, res *RunResult) error {
	var jw jsonObjectWriter
	jw.Append("from", res.Timeline.From)
	jw.Append("months", res.Timeline.Months())
	jw.Append("currency", res.Currency)
	jw.Append("totals", res.Totals)

	var outputs jsonObjectWriter
	for _, id := range sortedKeys(res.Outputs) {
		outputs.Append(id, res.Outputs[id])
	}
	jw.Append("outputs", &outputs)

	if len(res.ByStruct) > 0 {
		var byStruct jsonObjectWriter
		for _, id := range sortedKeys(res.ByStruct) {
			byStruct.Append(id, res.ByStruct[id])
		}
		jw.Append("by_struct", &byStruct)
	}
	jw.Append("meta", res.Meta)

	data, err := jw.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot encode run result: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// EncodeEntry writes a single journal entry as one JSON line.
func EncodeEntry(w io.Writer, e *Entry) error {
	var jw jsonObjectWriter
	jw.Append("id", e.ID)
	jw.Append("on", e.On)
	var postings []*jsonObjectWriter
	for _, p := range e.Postings {
		var pw jsonObjectWriter
		pw.Append("account", p.Account)
		pw.EmbedFrom(p.Amount)
		pw.Optional("meta", p.Meta)
		postings = append(postings, &pw)
	}
	jw.Append("postings", postings)
	jw.Optional("meta", e.Meta)

	data, err := jw.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot encode entry %q: %w", e.ID, err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// EncodeLedger persists the journal to an io.Writer in JSONL format, one
// entry per line in month order. Entry ids are content-addressed, so an
// unchanged scenario reproduces a byte-identical stream.
func EncodeLedger(w io.Writer, j *Journal) error {
	for e := range j.Entries() {
		if err := EncodeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

// EncodeLedgerCSV writes the journal as a flat CSV with one row per posting,
// for spreadsheet analysis.
func EncodeLedgerCSV(w io.Writer, j *Journal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "entry", "account", "currency", "amount"}); err != nil {
		return err
	}
	for e := range j.Entries() {
		for _, p := range e.Postings {
			row := []string{
				e.On.String(),
				e.ID,
				p.Account,
				p.Amount.Currency(),
				strconv.FormatFloat(p.Amount.AsFloat(), 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
