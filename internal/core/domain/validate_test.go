package domain

import (
	"strings"
	"testing"
)

func TestSecurityConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*SecurityConfig)
		wantFields []string
	}{
		{
			name:   "defaults",
			mutate: func(*SecurityConfig) {},
		},
		{
			name:   "valid psk",
			mutate: func(d *SecurityConfig) { *d = *sampleSecurityConfig() },
		},
		{
			name: "bad ports and host",
			mutate: func(d *SecurityConfig) {
				d.Bootstrap.BootstrapServer.Port = 0
				d.Bootstrap.LwM2MServer.Port = 70000
				d.Bootstrap.LwM2MServer.Host = ""
			},
			wantFields: []string{
				"bootstrap.bootstrapServer.port",
				"bootstrap.lwm2mServer.port",
				"bootstrap.lwm2mServer.host",
			},
		},
		{
			name: "bad binding and short id",
			mutate: func(d *SecurityConfig) {
				d.Bootstrap.Servers.Binding = "T"
				d.Bootstrap.Servers.ShortID = -1
			},
			wantFields: []string{"bootstrap.servers.binding", "bootstrap.servers.shortId"},
		},
		{
			name:       "unknown server mode",
			mutate:     func(d *SecurityConfig) { d.Bootstrap.LwM2MServer.SecurityMode = "TLS" },
			wantFields: []string{"bootstrap.lwm2mServer.securityMode"},
		},
		{
			name:       "psk server without credentials",
			mutate:     func(d *SecurityConfig) { d.Bootstrap.LwM2MServer.SecurityMode = ModePSK },
			wantFields: []string{"bootstrap.lwm2mServer.clientPublicKeyOrId", "bootstrap.lwm2mServer.clientSecretKey"},
		},
		{
			name: "x509 server with short private key",
			mutate: func(d *SecurityConfig) {
				s := &d.Bootstrap.BootstrapServer
				s.SecurityMode = ModeX509
				s.ClientPublicKeyOrID = strings.Repeat("ab", 200)
				s.ClientSecretKey = hex64
			},
			wantFields: []string{"bootstrap.bootstrapServer.clientSecretKey"},
		},
		{
			name:       "psk client without key",
			mutate:     func(d *SecurityConfig) { d.Client = DefaultClientSecurityConfig(ModePSK, "ep") },
			wantFields: []string{"client.key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := DefaultSecurityConfig("")
			tt.mutate(doc)
			err := doc.Validate()

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !IsDomainError(err, ErrProfileValidation.Code) {
				t.Fatalf("Validate() error = %v, want %s", err, ErrProfileValidation.Code)
			}
			fields := GetErrorFields(err)
			if len(fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := fields[f]; !ok {
					t.Errorf("missing violation for %q in %v", f, fields)
				}
			}
		})
	}
}

func TestProfileConfig_Validate(t *testing.T) {
	p := DefaultProfileConfig("")
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	p.Bootstrap.Servers.Lifetime = -5
	fields := GetErrorFields(p.Validate())
	if fields["bootstrap.servers.lifetime"] != "must be at least 0" {
		t.Errorf("fields = %v", fields)
	}
}

func TestValidateServer(t *testing.T) {
	s := DefaultLwM2MServerConfig("")
	if fields := ValidateServer(&s); len(fields) != 0 {
		t.Errorf("ValidateServer() = %v", fields)
	}
	s.SecurityMode = ModeRPK
	s.ClientPublicKeyOrID = "zz"
	fields := ValidateServer(&s)
	if _, ok := fields["clientPublicKeyOrId"]; !ok {
		t.Errorf("ValidateServer() = %v, want clientPublicKeyOrId", fields)
	}
	if _, ok := fields["clientSecretKey"]; !ok {
		t.Errorf("ValidateServer() = %v, want clientSecretKey", fields)
	}
}
