package editor

import "github.com/yndnr/lwm2m-seccfg/internal/core/domain"

// State is a read-only view of every surface of a session.
type State struct {
	Tab      Tab                                 `json:"tab"`
	Closed   bool                                `json:"closed"`
	Endpoint string                              `json:"endpoint"`
	Client   ClientState                         `json:"client"`
	Servers  map[domain.ServerTarget]ServerState `json:"servers"`
	JSON     JSONState                           `json:"json"`
	Document *domain.SecurityConfig              `json:"document"`
	Errors   map[string]string                   `json:"errors,omitempty"`
}

// ClientState is the client tab.
type ClientState struct {
	Mode     domain.SecurityMode `json:"securityConfigClientMode"`
	Endpoint FieldState          `json:"endpoint"`
	Identity FieldState          `json:"identity"`
	Key      FieldState          `json:"key"`
	X509     bool                `json:"x509"`
}

// ServerState is one server draft on the servers tab.
type ServerState struct {
	Draft  domain.ServerSecurityConfig `json:"draft"`
	Dirty  bool                        `json:"dirty"`
	Rules  domain.FieldRules           `json:"rules"`
	Errors map[string]string           `json:"errors,omitempty"`
}

// JSONState is the raw JSON tab.
type JSONState struct {
	Text  string `json:"text"`
	Dirty bool   `json:"dirty"`
	Error string `json:"error,omitempty"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	st := State{
		Tab:      s.tab,
		Closed:   s.closed,
		Endpoint: s.endpoint,
		Client: ClientState{
			Mode:     s.client.mode,
			Endpoint: s.client.endpoint.state(),
			Identity: s.client.identity.state(),
			Key:      s.client.key.state(),
			X509:     s.doc.Client.X509 != nil && s.doc.Client.X509.X509,
		},
		Servers:  make(map[domain.ServerTarget]ServerState, len(s.servers)),
		JSON:     JSONState{Text: s.json.text, Dirty: s.json.dirty},
		Document: s.doc.Clone(),
		Errors:   s.Errors(),
	}
	for t, f := range s.servers {
		ss := ServerState{Draft: f.draft, Dirty: f.dirty, Rules: f.rules}
		if len(f.errs) > 0 {
			ss.Errors = make(map[string]string, len(f.errs))
			for k, v := range f.errs {
				ss.Errors[k] = v
			}
		}
		st.Servers[t] = ss
	}
	if s.json.err != nil {
		st.JSON.Error = s.json.err.Error()
	}
	return st
}
