package editor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// endpointRule is applied to the endpoint field in every mode.
var endpointRule = domain.Rule{Required: true}

// Session is one open security-config dialog. It owns the canonical
// document and the three surfaces editing it.
//
// A Session is not safe for concurrent use.
type Session struct {
	doc      *domain.SecurityConfig
	endpoint string
	tab      Tab
	closed   bool

	client  *clientForm
	servers map[domain.ServerTarget]*serverForm
	json    *jsonForm

	onCommit func(Commit)
	onReject func(Tab, string)
}

type clientForm struct {
	mode     domain.SecurityMode
	endpoint *Field
	identity *Field
	key      *Field
}

type serverForm struct {
	draft domain.ServerSecurityConfig
	dirty bool
	rules domain.FieldRules
	errs  map[string]string
}

type jsonForm struct {
	text   string
	dirty  bool
	err    error
	parsed *domain.SecurityConfig
}

// Result is what Save hands back to the caller.
type Result struct {
	Endpoint string                 `json:"endpoint"`
	Document *domain.SecurityConfig `json:"document"`
}

// New opens a session on a copy of doc. A nil doc starts from defaults.
// PSK documents take the endpoint from the client subtree.
func New(endpoint string, doc *domain.SecurityConfig, opts ...Option) *Session {
	if doc == nil {
		doc = domain.DefaultSecurityConfig("")
	}
	s := &Session{
		doc:      doc.Clone(),
		endpoint: endpoint,
		tab:      TabClient,
		servers:  make(map[domain.ServerTarget]*serverForm, 2),
		json:     &jsonForm{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.doc.Client.Mode == "" {
		s.doc.Client = domain.DefaultClientSecurityConfig(domain.ModeNoSec, "")
	}
	if s.doc.Client.Mode == domain.ModePSK && s.doc.Client.Endpoint() != "" {
		s.endpoint = s.doc.Client.Endpoint()
	}

	rules := domain.ClientCredentialRules(s.doc.Client.Mode)
	s.client = &clientForm{
		mode:     s.doc.Client.Mode,
		endpoint: newField(s.endpoint, endpointRule),
		identity: newField(s.doc.Client.Identity(), rules.PublicKeyOrID),
		key:      newField(s.doc.Client.Key(), rules.SecretKey),
	}
	for _, t := range domain.ServerTargets() {
		srv, _ := s.doc.Server(t)
		f := &serverForm{draft: *srv}
		f.revalidate()
		s.servers[t] = f
	}
	s.refreshJSON()
	return s
}

// Tab returns the active tab.
func (s *Session) Tab() Tab { return s.tab }

// Closed reports whether the session was saved or cancelled.
func (s *Session) Closed() bool { return s.closed }

// Endpoint returns the last merged endpoint name.
func (s *Session) Endpoint() string { return s.endpoint }

// Document returns a copy of the canonical document.
func (s *Session) Document() *domain.SecurityConfig { return s.doc.Clone() }

// ClientMode returns the active client security mode.
func (s *Session) ClientMode() domain.SecurityMode { return s.client.mode }

// ServerRules returns the credential rules active on a server tab.
func (s *Session) ServerRules(target domain.ServerTarget) (domain.FieldRules, error) {
	f, err := s.server(target)
	if err != nil {
		return domain.FieldRules{}, err
	}
	return f.rules, nil
}

// SetClientMode rebuilds the client subtree from the defaults of mode,
// discarding the previous variant, and swaps the client rules. Both server
// drafts follow the new mode so their credential rules match it.
func (s *Session) SetClientMode(mode domain.SecurityMode) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !mode.IsValid() {
		return domain.ErrInvalidSecurityMode.WithDetails(string(mode))
	}
	cfg := domain.DefaultClientSecurityConfig(mode, s.client.endpoint.Value())
	s.apply(Commit{Tab: TabClient, Client: &cfg})
	for _, t := range domain.ServerTargets() {
		if f := s.servers[t]; f.draft.SecurityMode != mode {
			f.setMode(mode)
		}
	}
	return nil
}

// EditEndpoint records an edit of the endpoint field.
func (s *Session) EditEndpoint(v string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.client.endpoint.set(v)
	return nil
}

// EditIdentity records an edit of the client identity field.
func (s *Session) EditIdentity(v string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.client.identity.set(v)
	return nil
}

// EditClientKey records an edit of the client key field.
func (s *Session) EditClientKey(v string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.client.key.set(v)
	return nil
}

// SetServerMode changes the security mode of a server draft and swaps its
// credential rules.
func (s *Session) SetServerMode(target domain.ServerTarget, mode domain.SecurityMode) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	f, err := s.server(target)
	if err != nil {
		return err
	}
	if !mode.IsValid() {
		return domain.ErrInvalidSecurityMode.WithDetails(string(mode))
	}
	f.setMode(mode)
	return nil
}

// EditServer replaces a whole server draft.
func (s *Session) EditServer(target domain.ServerTarget, cfg domain.ServerSecurityConfig) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	f, err := s.server(target)
	if err != nil {
		return err
	}
	cfg.IsBootstrapServer = target == domain.TargetBootstrapServer
	f.draft = cfg
	f.dirty = true
	f.revalidate()
	return nil
}

// EditServerField sets one field of a server draft by its JSON name.
func (s *Session) EditServerField(target domain.ServerTarget, field, value string) error {
	return s.EditServerFields(target, nil, map[string]string{field: value})
}

// EditServerFields replaces the draft with cfg when it is non-nil, then sets
// fields in name order. A bad field leaves the draft as it was.
func (s *Session) EditServerFields(target domain.ServerTarget, cfg *domain.ServerSecurityConfig, fields map[string]string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	f, err := s.server(target)
	if err != nil {
		return err
	}

	draft := f.draft
	if cfg != nil {
		draft = *cfg
		draft.IsBootstrapServer = target == domain.TargetBootstrapServer
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := setServerField(&draft, name, fields[name]); err != nil {
			return err
		}
	}

	f.draft = draft
	f.dirty = true
	f.revalidate()
	return nil
}

func setServerField(d *domain.ServerSecurityConfig, field, value string) error {
	switch field {
	case "host":
		d.Host = value
	case "securityMode":
		mode, err := domain.ParseSecurityMode(value)
		if err != nil {
			return err
		}
		d.SecurityMode = mode
	case "clientPublicKeyOrId":
		d.ClientPublicKeyOrID = value
	case "clientSecretKey":
		d.ClientSecretKey = value
	case "serverPublicKey":
		d.ServerPublicKey = value
	case "port", "clientHoldOffTime", "serverId", "bootstrapServerAccountTimeout":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("%s: %q is not a number", field, value))
		}
		switch field {
		case "port":
			d.Port = n
		case "clientHoldOffTime":
			d.ClientHoldOffTime = n
		case "serverId":
			d.ServerID = n
		default:
			d.BootstrapServerAccountTimeout = n
		}
	default:
		return domain.ErrUnknownField.WithDetails(field)
	}
	return nil
}

// EditJSON replaces the raw JSON buffer.
func (s *Session) EditJSON(raw string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	j := s.json
	j.text = raw
	j.dirty = true
	j.parsed = nil
	j.err = nil

	var doc domain.SecurityConfig
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		j.err = domain.ErrProfileMalformed.WithCause(err).WithDetails(err.Error())
		return nil
	}
	j.parsed = &doc
	return nil
}

// ChangeTab leaves the active tab, merging its valid edits, and activates tab.
// Selecting the active tab again does nothing.
func (s *Session) ChangeTab(tab Tab) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !tab.Valid() {
		return domain.ErrUnknownTab.WithDetails(tab.String())
	}
	if tab != s.tab {
		s.flush(s.tab)
	}
	s.tab = tab
	return nil
}

// Flush merges the valid edits of the active tab without leaving it.
func (s *Session) Flush() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.flush(s.tab)
	return nil
}

// Save merges the active tab and closes the session. The returned endpoint
// has quote characters removed; under PSK it is the client identity.
func (s *Session) Save() (*Result, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.flush(s.tab)

	endpoint := strings.ReplaceAll(s.client.endpoint.Value(), `"`, "")
	if s.doc.Client.Mode == domain.ModePSK {
		endpoint = s.doc.Client.Identity()
	}
	s.closed = true
	return &Result{Endpoint: endpoint, Document: s.doc.Clone()}, nil
}

// Cancel discards all edits and closes the session.
func (s *Session) Cancel() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.closed = true
	return nil
}

// Errors returns the current validation errors of every surface, keyed by
// "client.<field>", "<server target>.<field>" or "json".
func (s *Session) Errors() map[string]string {
	errs := make(map[string]string)
	for name, f := range s.clientFields() {
		if f.err != nil {
			errs["client."+name] = f.err.Error()
		}
	}
	for _, t := range domain.ServerTargets() {
		for k, v := range s.servers[t].errs {
			errs[string(t)+"."+k] = v
		}
	}
	if s.json.err != nil {
		errs["json"] = s.json.err.Error()
	}
	return errs
}

func (s *Session) checkOpen() error {
	if s.closed {
		return domain.ErrEditSessionClosed
	}
	return nil
}

func (s *Session) server(target domain.ServerTarget) (*serverForm, error) {
	f, ok := s.servers[target]
	if !ok {
		return nil, domain.ErrUnknownServer.WithDetails(string(target))
	}
	return f, nil
}

func (s *Session) clientFields() map[string]*Field {
	return map[string]*Field{
		"endpoint": s.client.endpoint,
		"identity": s.client.identity,
		"key":      s.client.key,
	}
}

// flush collects the mergeable edits of tab into a commit and applies it.
// Dirty values that fail validation stay in their surface, still dirty.
func (s *Session) flush(tab Tab) {
	c := Commit{Tab: tab}
	switch tab {
	case TabClient:
		c.Endpoint = s.take(tab, "endpoint", s.client.endpoint)
		c.Identity = s.take(tab, "identity", s.client.identity)
		c.Key = s.take(tab, "key", s.client.key)
	case TabServers:
		for _, t := range domain.ServerTargets() {
			f := s.servers[t]
			if !f.dirty {
				continue
			}
			if !f.valid() {
				s.reject(tab, string(t))
				continue
			}
			if c.Servers == nil {
				c.Servers = make(map[domain.ServerTarget]domain.ServerSecurityConfig, 2)
			}
			c.Servers[t] = f.draft
			f.dirty = false
		}
	case TabJSON:
		if s.json.dirty {
			if s.json.err != nil {
				s.reject(tab, "json")
				break
			}
			c.Document = s.json.parsed
			s.json.dirty = false
		}
	}
	if !c.Empty() {
		s.apply(c)
	}
}

func (s *Session) take(tab Tab, name string, f *Field) *string {
	if !f.dirty {
		return nil
	}
	if !f.mergeable() {
		s.reject(tab, name)
		return nil
	}
	v := f.value
	f.markPristine()
	return &v
}

func (s *Session) reject(tab Tab, field string) {
	if s.onReject != nil {
		s.onReject(tab, field)
	}
}

// apply is the single place that writes the canonical document. It owns the
// cross-propagation of client credentials into PSK servers.
func (s *Session) apply(c Commit) {
	if c.Client != nil {
		s.doc.Client = *c.Client
		s.resetClientForm()
	}
	if c.Endpoint != nil {
		s.endpoint = *c.Endpoint
		if s.doc.Client.PSK != nil {
			s.doc.Client.PSK.Endpoint = *c.Endpoint
		}
	}
	if c.Identity != nil {
		id := *c.Identity
		if s.doc.Client.PSK != nil {
			s.doc.Client.PSK.Identity = id
		}
		s.propagate(func(srv *domain.ServerSecurityConfig) { srv.ClientPublicKeyOrID = id })
	}
	if c.Key != nil {
		key := *c.Key
		switch {
		case s.doc.Client.PSK != nil:
			s.doc.Client.PSK.Key = key
		case s.doc.Client.RPK != nil:
			s.doc.Client.RPK.Key = key
		}
		s.propagate(func(srv *domain.ServerSecurityConfig) { srv.ClientSecretKey = key })
	}
	for t, cfg := range c.Servers {
		srv, _ := s.doc.Server(t)
		*srv = cfg
	}
	if c.Document != nil {
		s.doc = c.Document.Clone()
		s.refreshPristine()
	}

	s.syncServerDrafts()
	s.refreshJSON()
	if s.onCommit != nil {
		s.onCommit(c)
	}
}

// propagate applies fn to every server whose mode is exactly PSK, in the
// document and in dirty drafts.
func (s *Session) propagate(fn func(*domain.ServerSecurityConfig)) {
	for _, t := range domain.ServerTargets() {
		srv, _ := s.doc.Server(t)
		if srv.SecurityMode == domain.ModePSK {
			fn(srv)
		}
		f := s.servers[t]
		if f.dirty && f.draft.SecurityMode == domain.ModePSK {
			fn(&f.draft)
			f.revalidate()
		}
	}
}

// syncServerDrafts copies the document into drafts the user has not touched.
func (s *Session) syncServerDrafts() {
	for _, t := range domain.ServerTargets() {
		f := s.servers[t]
		if f.dirty {
			continue
		}
		srv, _ := s.doc.Server(t)
		f.draft = *srv
		f.revalidate()
	}
}

// resetClientForm re-initialises the client fields from the document.
func (s *Session) resetClientForm() {
	s.client.mode = s.doc.Client.Mode
	rules := domain.ClientCredentialRules(s.client.mode)
	s.client.identity.reset(s.doc.Client.Identity())
	s.client.identity.setRule(rules.PublicKeyOrID)
	s.client.key.reset(s.doc.Client.Key())
	s.client.key.setRule(rules.SecretKey)
}

// refreshPristine reloads untouched client fields after the whole document
// was replaced. Dirty fields keep their values but follow the new rules.
func (s *Session) refreshPristine() {
	c := &s.doc.Client
	if c.Mode == "" {
		*c = domain.DefaultClientSecurityConfig(domain.ModeNoSec, "")
	}
	s.client.mode = c.Mode
	rules := domain.ClientCredentialRules(c.Mode)

	if c.Mode == domain.ModePSK && c.Endpoint() != "" && !s.client.endpoint.dirty {
		s.endpoint = c.Endpoint()
		s.client.endpoint.reset(s.endpoint)
	}
	if !s.client.identity.dirty {
		s.client.identity.reset(c.Identity())
	}
	s.client.identity.setRule(rules.PublicKeyOrID)
	if !s.client.key.dirty {
		s.client.key.reset(c.Key())
	}
	s.client.key.setRule(rules.SecretKey)
}

// refreshJSON re-renders the JSON buffer unless it holds unmerged edits.
func (s *Session) refreshJSON() {
	if s.json.dirty {
		return
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		s.json.err = err
		return
	}
	s.json.text = string(data)
	s.json.err = nil
	s.json.parsed = nil
}

func (f *serverForm) setMode(mode domain.SecurityMode) {
	f.draft.SecurityMode = mode
	f.dirty = true
	f.revalidate()
}

func (f *serverForm) revalidate() {
	f.rules = domain.ServerCredentialRules(f.draft.SecurityMode)
	f.errs = domain.ValidateServer(&f.draft)
}

func (f *serverForm) valid() bool {
	return len(f.errs) == 0
}
