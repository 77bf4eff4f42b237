package finbrick

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/finbricklab/finbrick/month"
)

// Family is the coarse classification of a brick. It decides which account
// the brick owns and how its flows cross the net-worth boundary.
type Family string

const (
	FamilyAsset     Family = "a"
	FamilyLiability Family = "l"
	FamilyFlow      Family = "f"
	FamilyTransfer  Family = "t"
)

// Kind discriminators for the built-in strategies. A Catalog maps each kind
// to its simulation strategy; unknown kinds fail at prepare time.
const (
	KindCash              = "a.cash"
	KindProperty          = "a.property_discrete"
	KindETF               = "a.etf_unitized"
	KindMortgageAnnuity   = "l.mortgage.annuity"
	KindIncomeRecurring   = "f.income.recurring"
	KindIncomeOnetime     = "f.income.onetime"
	KindExpenseRecurring  = "f.expense.recurring"
	KindExpenseOnetime    = "f.expense.onetime"
	KindTransferLumpSum   = "t.transfer.lumpsum"
	KindTransferRecurring = "t.transfer.recurring"
)

// FamilyOfKind returns the family encoded in a kind discriminator's prefix.
func FamilyOfKind(kind string) (Family, error) {
	prefix, _, ok := strings.Cut(kind, ".")
	if !ok {
		return "", configErrorf(kind, "malformed kind, want family prefix")
	}
	switch f := Family(prefix); f {
	case FamilyAsset, FamilyLiability, FamilyFlow, FamilyTransfer:
		return f, nil
	default:
		return "", configErrorf(kind, "unknown family prefix %q", prefix)
	}
}

// Window is the optional activation window of a brick. A zero Start means the
// scenario start, a zero End and Duration mean the scenario end. When both an
// End and a Duration are given, End wins. Duration counts the start month.
type Window struct {
	Start    month.Period `json:"start,omitzero"`
	End      month.Period `json:"end,omitzero"`
	Duration int          `json:"duration_m,omitempty"`
}

// Mask returns for each period of the timeline whether the window is active.
// It warns when an explicit end overrides an explicit duration.
func (w Window) Mask(timeline month.Range, warn func(format string, args ...any)) []bool {
	start := timeline.From
	if w.Start != (month.Period{}) {
		start = w.Start
	}
	end := timeline.To
	switch {
	case w.End != (month.Period{}) && w.Duration > 0:
		if warn != nil {
			warn("window end %s overrides duration of %d months", w.End, w.Duration)
		}
		end = w.End
	case w.End != (month.Period{}):
		end = w.End
	case w.Duration > 0:
		end = start.Add(w.Duration - 1)
	}
	mask := make([]bool, timeline.Months())
	for i := range mask {
		p := timeline.From.Add(i)
		mask[i] = !p.Before(start) && !p.After(end)
	}
	return mask
}

// StartLink starts a brick relative to another brick's lifecycle.
type StartLink struct {
	OnEndOf string `json:"on_end_of,omitempty"` // start when that brick's window ends
	Offset  int    `json:"offset_m,omitempty"`  // months offset from the reference point
}

// PrincipalLink derives a loan's principal from another brick.
type PrincipalLink struct {
	FromProperty string  `json:"from_property,omitempty"` // price + fees - down payment of that property
	RemainingOf  string  `json:"remaining_of,omitempty"`  // remaining balance of that loan
	Share        float64 `json:"share,omitempty"`         // 0..1 fraction for remaining_of
	Nominal      float64 `json:"nominal,omitempty"`       // explicit amount
}

// Links are the structured cross-references of a brick to other bricks.
type Links struct {
	Principal *PrincipalLink `json:"principal,omitempty"`
	Start     *StartLink     `json:"start,omitempty"`
	From      string         `json:"from,omitempty"` // transfer source brick
	To        string         `json:"to,omitempty"`   // transfer destination brick
}

// Refs returns the ids of all bricks referenced by the links, sorted.
func (l Links) Refs() []string {
	set := map[string]bool{}
	if l.Principal != nil {
		if l.Principal.FromProperty != "" {
			set[l.Principal.FromProperty] = true
		}
		if l.Principal.RemainingOf != "" {
			set[l.Principal.RemainingOf] = true
		}
	}
	if l.Start != nil && l.Start.OnEndOf != "" {
		set[l.Start.OnEndOf] = true
	}
	if l.From != "" {
		set[l.From] = true
	}
	if l.To != "" {
		set[l.To] = true
	}
	refs := make([]string, 0, len(set))
	for id := range set {
		refs = append(refs, id)
	}
	sort.Strings(refs)
	return refs
}

func (l Links) clone() Links {
	c := l
	if l.Principal != nil {
		p := *l.Principal
		c.Principal = &p
	}
	if l.Start != nil {
		s := *l.Start
		c.Start = &s
	}
	return c
}

// Params is the free-form parameter block of a brick. Strategies read it
// through the typed accessors, which return a default for absent keys.
type Params map[string]any

// Float returns the parameter as a float64, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// Int returns the parameter as an int, or def when absent.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// Bool returns the parameter as a bool, or def when absent.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Str returns the parameter as a string, or def when absent.
func (p Params) Str(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// sortedItems renders the parameters as "k=v" pairs in key order, for
// content-addressed entry ids.
func (p Params) sortedItems() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s=%v", k, p[k])
	}
	return b.String()
}

// Brick is one composable financial instrument: an asset, liability, flow or
// transfer with a kind discriminator resolved to a strategy by the catalog.
type Brick struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Kind   string `json:"kind"`
	Family Family `json:"-"` // derived from Kind
	Params Params `json:"params,omitempty"`
	Links  Links  `json:"links,omitzero"`
	Window Window `json:"window,omitzero"`
}

// Clone returns a deep working copy of the brick, so a run never mutates the
// caller's definitions.
func (b *Brick) Clone() *Brick {
	c := *b
	c.Params = maps.Clone(b.Params)
	c.Links = b.Links.clone()
	return &c
}

func (b *Brick) String() string { return fmt.Sprintf("%s (%s)", b.ID, b.Kind) }
