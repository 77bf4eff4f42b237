package finbrick

import (
	"log"

	"github.com/finbricklab/finbrick/month"
)

// Event is a timestamped note emitted by a strategy during simulation, such
// as a purchase, a disposal or a balloon payoff.
type Event struct {
	On      month.Period `json:"on"`
	Kind    string       `json:"kind"`
	Message string       `json:"message,omitempty"`
}

// Output is the fixed-shape result of simulating one brick over the scenario
// timeline. CashIn, CashOut and Interest are flows; AssetValue and
// DebtBalance are stocks.
type Output struct {
	CashIn      *month.Series[float64] `json:"cash_in"`
	CashOut     *month.Series[float64] `json:"cash_out"`
	AssetValue  *month.Series[float64] `json:"asset_value"`
	DebtBalance *month.Series[float64] `json:"debt_balance"`
	Interest    *month.Series[float64] `json:"interest"`
	Events      []Event                `json:"events,omitempty"`
}

// NewOutput returns a zero-valued output covering the timeline.
func NewOutput(timeline month.Range) *Output {
	return &Output{
		CashIn:      month.NewSeries[float64](timeline),
		CashOut:     month.NewSeries[float64](timeline),
		AssetValue:  month.NewSeries[float64](timeline),
		DebtBalance: month.NewSeries[float64](timeline),
		Interest:    month.NewSeries[float64](timeline),
	}
}

// NetCashflow returns cash in minus cash out for the given month.
func (o *Output) NetCashflow(p month.Period) float64 {
	return o.CashIn.Get(p) - o.CashOut.Get(p)
}

// Accumulate sums the other output into o element-wise. Events are
// concatenated.
func (o *Output) Accumulate(other *Output) error {
	for _, pair := range []struct{ dst, src *month.Series[float64] }{
		{o.CashIn, other.CashIn},
		{o.CashOut, other.CashOut},
		{o.AssetValue, other.AssetValue},
		{o.DebtBalance, other.DebtBalance},
		{o.Interest, other.Interest},
	} {
		if err := pair.dst.Add(pair.src); err != nil {
			return err
		}
	}
	o.Events = append(o.Events, other.Events...)
	return nil
}

// Context is handed to every strategy invocation. It carries the shared
// timeline, the per-run journal and a lookup over the cloned bricks of the
// execution set.
type Context struct {
	Timeline month.Range
	Currency string
	Journal  *Journal
	Accounts *AccountRegistry

	// RoutedIn and RoutedOut are the period-summed flows of every non-cash
	// brick, populated by the engine before the cash brick simulates.
	RoutedIn  *month.Series[float64]
	RoutedOut *month.Series[float64]

	bricks  map[string]*Brick
	outputs map[string]*Output
	warnf   func(format string, args ...any)
}

// NewContext returns a context for driving strategies outside a scenario
// run, as strategy tests do. The bricks form the execution set.
func NewContext(timeline month.Range, currency string, bricks ...*Brick) *Context {
	ctx := &Context{
		Timeline:  timeline,
		Currency:  currency,
		Accounts:  NewAccountRegistry(currency),
		RoutedIn:  month.NewSeries[float64](timeline),
		RoutedOut: month.NewSeries[float64](timeline),
		bricks:    make(map[string]*Brick, len(bricks)),
		outputs:   make(map[string]*Output),
	}
	for _, b := range bricks {
		ctx.bricks[b.ID] = b
	}
	return ctx
}

// SetOutput records a simulated output, making it visible to bricks
// simulated later through Output.
func (ctx *Context) SetOutput(id string, o *Output) { ctx.outputs[id] = o }

// Brick returns the cloned working copy of the brick with the given id.
func (ctx *Context) Brick(id string) (*Brick, error) {
	b, ok := ctx.bricks[id]
	if !ok {
		return nil, configErrorf(id, "brick not found in execution set")
	}
	return b, nil
}

// Output returns the output of an already-simulated brick. Execution order
// guarantees that linked dependencies are simulated first.
func (ctx *Context) Output(id string) (*Output, error) {
	o, ok := ctx.outputs[id]
	if !ok {
		return nil, configErrorf(id, "brick has no output yet")
	}
	return o, nil
}

// ActiveMask returns the activation mask of the brick over the timeline.
func (ctx *Context) ActiveMask(b *Brick) []bool {
	return b.Window.Mask(ctx.Timeline, ctx.warnf)
}

// Warnf logs a non-fatal finding during preparation or simulation.
func (ctx *Context) Warnf(format string, args ...any) {
	if ctx.warnf != nil {
		ctx.warnf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Strategy is the pluggable logic of one brick kind. Prepare validates and
// derives parameters once before simulation; Simulate returns the fixed-shape
// output for the whole timeline. The engine is agnostic to what a strategy
// computes.
type Strategy interface {
	Prepare(b *Brick, ctx *Context) error
	Simulate(b *Brick, ctx *Context) (*Output, error)
}

// Catalog maps kind discriminators to strategies. It is constructed by the
// caller and passed to the scenario explicitly, never kept as global state.
type Catalog struct {
	strategies map[string]Strategy
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{strategies: make(map[string]Strategy)}
}

// Register maps a kind to its strategy, replacing any previous mapping.
func (c *Catalog) Register(kind string, s Strategy) *Catalog {
	c.strategies[kind] = s
	return c
}

// Lookup returns the strategy for a kind.
func (c *Catalog) Lookup(kind string) (Strategy, error) {
	s, ok := c.strategies[kind]
	if !ok {
		return nil, configErrorf(kind, "no strategy registered for kind")
	}
	return s, nil
}

// Kinds returns the registered kind discriminators, sorted.
func (c *Catalog) Kinds() []string { return sortedKeys(c.strategies) }
