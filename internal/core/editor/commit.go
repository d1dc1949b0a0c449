package editor

import (
	"fmt"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// Tab identifies one editable surface of the dialog.
type Tab int

// Tabs in display order.
const (
	TabClient Tab = iota
	TabServers
	TabJSON
)

var tabNames = [...]string{"client", "servers", "json"}

// ParseTab converts a tab index or name to a Tab.
func ParseTab(s string) (Tab, error) {
	for i, name := range tabNames {
		if s == name || s == fmt.Sprint(i) {
			return Tab(i), nil
		}
	}
	return 0, domain.ErrUnknownTab.WithDetails(s)
}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	return t >= TabClient && t <= TabJSON
}

// String returns the tab name.
func (t Tab) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tab(%d)", int(t))
	}
	return tabNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t Tab) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tab) UnmarshalText(b []byte) error {
	parsed, err := ParseTab(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Commit is the change one surface hands to the session when it merges.
// Only the parts the surface owns are set.
type Commit struct {
	Tab Tab

	// Client replaces the whole client subtree (mode switch).
	Client *domain.ClientSecurityConfig

	// Client tab fields.
	Endpoint *string
	Identity *string
	Key      *string

	// Servers tab drafts by target.
	Servers map[domain.ServerTarget]domain.ServerSecurityConfig

	// Document replaces the whole document (raw JSON tab).
	Document *domain.SecurityConfig
}

// Empty reports whether the commit carries no change.
func (c Commit) Empty() bool {
	return c.Client == nil && c.Endpoint == nil && c.Identity == nil && c.Key == nil &&
		len(c.Servers) == 0 && c.Document == nil
}

// Option configures a Session.
type Option func(*Session)

// WithCommitHook registers fn to observe every applied commit.
func WithCommitHook(fn func(Commit)) Option {
	return func(s *Session) {
		s.onCommit = fn
	}
}

// WithRejectHook registers fn to observe dirty values that were held back
// because they failed validation. field is the form field or server target.
func WithRejectHook(fn func(tab Tab, field string)) Option {
	return func(s *Session) {
		s.onReject = fn
	}
}
