package finbrick

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/finbricklab/finbrick/month"

	"github.com/shopspring/decimal"
)

// Posting is one signed leg of a journal entry against one account in one
// currency. It never exists outside an Entry.
type Posting struct {
	Account string
	Amount  Money
	Meta    map[string]string
}

// Entry is one double-entry record: at least two postings that sum to zero
// per currency, stamped with the month they belong to.
type Entry struct {
	ID       string
	On       month.Period
	Postings []Posting
	Meta     map[string]string
}

// NewEntry builds a validated entry. Posting amounts are quantized to their
// currency's minor unit, so the zero-sum check is exact.
func NewEntry(id string, on month.Period, postings ...Posting) (*Entry, error) {
	e := &Entry{ID: id, On: on, Postings: postings}
	for i, p := range e.Postings {
		e.Postings[i].Amount = p.Amount.Round()
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// validate re-checks the structural invariants of the entry.
func (e *Entry) validate() error {
	if len(e.Postings) < 2 {
		return configErrorf(e.ID, "entry needs at least 2 postings, got %d", len(e.Postings))
	}
	sums := map[string]decimal.Decimal{}
	for _, p := range e.Postings {
		c := p.Amount.Currency()
		if c == "" {
			return configErrorf(e.ID, "posting on %q has no currency", p.Account)
		}
		sums[c] = sums[c].Add(p.Amount.value)
	}
	for c, sum := range sums {
		if !sum.IsZero() {
			return configErrorf(e.ID, "postings in %s sum to %s, want zero", c, sum)
		}
	}
	return nil
}

// Accounts returns the distinct account ids touched by the entry, sorted.
func (e *Entry) Accounts() []string {
	set := map[string]bool{}
	for _, p := range e.Postings {
		set[p.Account] = true
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// EntryID derives a deterministic content-addressed entry id, so that
// re-simulating an unchanged scenario reproduces a byte-identical ledger and
// the same logical event is never double-posted on re-run.
func EntryID(brickID string, on month.Period, params Params, links Links, seq int) string {
	content := fmt.Sprintf("%s:%s:%s:%s:%d",
		brickID, on, params.sortedItems(), strings.Join(links.Refs(), ","), seq)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// Journal is the append-only double-entry ledger of a run. Entries are kept
// sorted by month, ties broken by insertion order, and a running balance per
// (account, currency) is maintained on every post.
type Journal struct {
	accounts *AccountRegistry
	entries  []*Entry
	ids      map[string]bool
	balances map[string]map[string]Money // account -> currency -> balance
}

// NewJournal returns an empty journal posting against the given accounts.
func NewJournal(accounts *AccountRegistry) *Journal {
	return &Journal{
		accounts: accounts,
		ids:      make(map[string]bool),
		balances: make(map[string]map[string]Money),
	}
}

// Len returns the number of posted entries.
func (j *Journal) Len() int { return len(j.entries) }

// Accounts returns the registry this journal posts against.
func (j *Journal) Accounts() *AccountRegistry { return j.accounts }

// Entries returns an iterator over all entries in month order, ties broken by
// insertion order.
func (j *Journal) Entries() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range j.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Post validates and appends the entry, updating the balance cache. An entry
// whose id was already posted is rejected, which makes re-simulation
// idempotent.
func (j *Journal) Post(e *Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if j.ids[e.ID] {
		return configErrorf(e.ID, "duplicate entry id")
	}
	j.ids[e.ID] = true
	j.entries = append(j.entries, e)
	j.stableSort()
	for _, p := range e.Postings {
		cur := p.Amount.Currency()
		if j.balances[p.Account] == nil {
			j.balances[p.Account] = make(map[string]Money)
		}
		j.balances[p.Account][cur] = j.balances[p.Account][cur].Add(p.Amount)
	}
	return nil
}

func (j *Journal) stableSort() {
	sort.SliceStable(j.entries, func(a, b int) bool {
		return j.entries[a].On.Before(j.entries[b].On)
	})
}

// Balance returns the cached current balance of the account in the currency.
func (j *Journal) Balance(account, currency string) Money {
	m, ok := j.balances[account][currency]
	if !ok {
		return M(decimal.Zero, currency)
	}
	return m
}

// BalanceAsOf replays the ledger and returns the balance of the account in
// the currency at the end of the given month.
func (j *Journal) BalanceAsOf(account, currency string, asOf month.Period) Money {
	balance := M(decimal.Zero, currency)
	for _, e := range j.entries {
		if e.On.After(asOf) {
			// The journal is sorted by month, so it's safe to break.
			break
		}
		for _, p := range e.Postings {
			if p.Account == account && p.Amount.Currency() == currency {
				balance = balance.Add(p.Amount)
			}
		}
	}
	return balance
}

// TrialBalance returns the current balance of every (account, currency) pair.
func (j *Journal) TrialBalance() map[string]map[string]Money {
	out := make(map[string]map[string]Money, len(j.balances))
	for account, byCur := range j.balances {
		out[account] = make(map[string]Money, len(byCur))
		for cur, m := range byCur {
			out[account][cur] = m
		}
	}
	return out
}

// TrialBalanceAsOf replays the ledger up to the end of the given month and
// accumulates every (account, currency) pair in one pass.
func (j *Journal) TrialBalanceAsOf(asOf month.Period) map[string]map[string]Money {
	out := make(map[string]map[string]Money)
	for _, e := range j.entries {
		if e.On.After(asOf) {
			break
		}
		for _, p := range e.Postings {
			cur := p.Amount.Currency()
			if out[p.Account] == nil {
				out[p.Account] = make(map[string]Money)
			}
			out[p.Account][cur] = out[p.Account][cur].Add(p.Amount)
		}
	}
	return out
}

// Cashflow returns the net posting sum per currency within the window,
// boundaries included, restricted to accounts of the given scope. The empty
// scope matches every account.
func (j *Journal) Cashflow(window month.Range, scope Scope) map[string]Money {
	out := make(map[string]Money)
	for _, e := range j.entries {
		if e.On.After(window.To) {
			break
		}
		if e.On.Before(window.From) {
			continue
		}
		for _, p := range e.Postings {
			if scope != "" {
				a, ok := j.accounts.Get(p.Account)
				if !ok || a.Scope != scope {
					continue
				}
			}
			cur := p.Amount.Currency()
			out[cur] = out[cur].Add(p.Amount)
		}
	}
	return out
}

// ValidateInvariants re-checks every entry independently and returns the list
// of violations instead of failing at the first one. When the journal has an
// account registry, postings against unregistered accounts are reported as
// orphans.
func (j *Journal) ValidateInvariants() []error {
	var violations []error
	for _, e := range j.entries {
		if err := e.validate(); err != nil {
			violations = append(violations, err)
		}
		if j.accounts == nil {
			continue
		}
		for _, p := range e.Postings {
			if !j.accounts.Has(p.Account) {
				violations = append(violations, configErrorf(e.ID, "orphan account %q", p.Account))
			}
		}
	}
	return violations
}
