package finbrick

import "fmt"

// ConfigError reports an invalid brick or scenario configuration detected
// before or during a run. It always names the offending element.
type ConfigError struct {
	ID     string // brick, macro or account id
	Reason string
}

func (e *ConfigError) Error() string {
	if e.ID == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.ID, e.Reason)
}

// configErrorf builds a ConfigError with a formatted reason.
func configErrorf(id, format string, args ...any) *ConfigError {
	return &ConfigError{ID: id, Reason: fmt.Sprintf(format, args...)}
}

// IdentityError reports a broken accounting identity in a finished run, such
// as equity differing from assets minus liabilities.
type IdentityError struct {
	Check  string // name of the identity
	Period string // month where it first broke, if known
	Detail string
}

func (e *IdentityError) Error() string {
	if e.Period == "" {
		return fmt.Sprintf("%s: %s", e.Check, e.Detail)
	}
	return fmt.Sprintf("%s at %s: %s", e.Check, e.Period, e.Detail)
}
