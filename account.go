package finbrick

import (
	"fmt"
	"sort"
)

// Scope classifies an account as inside or outside the simulated net worth.
type Scope string

const (
	// ScopeInternal marks accounts that belong to the simulated household
	// (assets and liabilities).
	ScopeInternal Scope = "internal"
	// ScopeBoundary marks accounts representing the external world. Postings
	// touching them cross the net-worth boundary.
	ScopeBoundary Scope = "boundary"
)

// AccountType classifies an account for reporting and identity checks.
type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Income    AccountType = "income"
	Expense   AccountType = "expense"
	Equity    AccountType = "equity"
	PnL       AccountType = "pnl"
)

// BoundaryAccountID is the id of the single well-known boundary account
// standing in for the external world. It is registered at construction and
// receives the counter-postings of all flows that cross the net-worth line.
const BoundaryAccountID = "external:world"

// Account is a node of the double-entry graph.
type Account struct {
	ID       string
	Name     string
	Scope    Scope
	Type     AccountType
	Currency string
}

// IsInternal reports whether the account is inside the net-worth boundary.
func (a Account) IsInternal() bool { return a.Scope == ScopeInternal }

// IsBoundary reports whether the account represents the external world.
func (a Account) IsBoundary() bool { return a.Scope == ScopeBoundary }

func (a Account) String() string { return fmt.Sprintf("%s (%s)", a.ID, a.Name) }

// AccountRegistry holds the accounts a journal is allowed to post against.
type AccountRegistry struct {
	accounts map[string]Account
}

// NewAccountRegistry returns a registry holding only the well-known boundary
// account.
func NewAccountRegistry(currency string) *AccountRegistry {
	r := &AccountRegistry{accounts: make(map[string]Account)}
	r.Register(Account{
		ID:       BoundaryAccountID,
		Name:     "External World",
		Scope:    ScopeBoundary,
		Type:     Equity,
		Currency: currency,
	})
	return r
}

// Register adds or replaces the account under its id.
func (r *AccountRegistry) Register(a Account) { r.accounts[a.ID] = a }

// Get returns the account with the given id.
func (r *AccountRegistry) Get(id string) (Account, bool) {
	a, ok := r.accounts[id]
	return a, ok
}

// Has reports whether an account with the given id exists.
func (r *AccountRegistry) Has(id string) bool {
	_, ok := r.accounts[id]
	return ok
}

// ByScope returns all accounts with the given scope, sorted by id.
func (r *AccountRegistry) ByScope(scope Scope) []Account {
	var out []Account
	for _, a := range r.accounts {
		if a.Scope == scope {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidateTransferAccounts checks that both ends of a transfer are internal.
// Internal transfers must never touch the boundary.
func (r *AccountRegistry) ValidateTransferAccounts(from, to string) error {
	for _, id := range []string{from, to} {
		a, ok := r.Get(id)
		if !ok {
			return configErrorf(id, "transfer account not found")
		}
		if !a.IsInternal() {
			return configErrorf(id, "transfer account must be internal (scope: %s)", a.Scope)
		}
	}
	return nil
}

// ValidateFlowAccounts checks that a flow crosses exactly the
// internal/boundary line: boundaryID must be boundary-scoped and every
// internal id must be internal.
func (r *AccountRegistry) ValidateFlowAccounts(boundaryID string, internalIDs []string) error {
	b, ok := r.Get(boundaryID)
	if !ok {
		return configErrorf(boundaryID, "boundary account not found")
	}
	if !b.IsBoundary() {
		return configErrorf(boundaryID, "account must be boundary (scope: %s)", b.Scope)
	}
	for _, id := range internalIDs {
		a, ok := r.Get(id)
		if !ok {
			return configErrorf(id, "internal account not found")
		}
		if !a.IsInternal() {
			return configErrorf(id, "account must be internal (scope: %s)", a.Scope)
		}
	}
	return nil
}

// RegisterBrickAccount derives the canonical account for a brick from its
// family and registers it. Asset and liability bricks own an internal account
// named after their family prefix. Flow bricks do not own an account: their
// external leg is the boundary account, whose id is returned. Transfer bricks
// move money between existing internal accounts and own no account either.
func (r *AccountRegistry) RegisterBrickAccount(brickID string, family Family, name, currency string) (string, error) {
	switch family {
	case FamilyAsset:
		id := "asset:" + brickID
		r.Register(Account{ID: id, Name: name, Scope: ScopeInternal, Type: Asset, Currency: currency})
		return id, nil
	case FamilyLiability:
		id := "liability:" + brickID
		r.Register(Account{ID: id, Name: name, Scope: ScopeInternal, Type: Liability, Currency: currency})
		return id, nil
	case FamilyFlow:
		return BoundaryAccountID, nil
	case FamilyTransfer:
		return "", configErrorf(brickID, "transfer bricks do not own an account")
	default:
		return "", configErrorf(brickID, "unknown brick family %q", family)
	}
}
