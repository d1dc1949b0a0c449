package domain

import (
	"reflect"
	"testing"
)

func TestPortForBootstrap(t *testing.T) {
	tests := []struct {
		mode SecurityMode
		want int
	}{
		{"", 5689},
		{ModeNoSec, 5689},
		{ModePSK, 5690},
		{ModeRPK, 5690},
		{ModeX509, 5692},
	}
	for _, tt := range tests {
		if got := PortForBootstrap(tt.mode); got != tt.want {
			t.Errorf("PortForBootstrap(%q) = %d, want %d", tt.mode, got, tt.want)
		}
	}
}

func TestPortForServer(t *testing.T) {
	tests := []struct {
		mode SecurityMode
		want int
	}{
		{"", 5685},
		{ModeNoSec, 5685},
		{ModePSK, 5686},
		{ModeRPK, 5686},
		{ModeX509, 5688},
	}
	for _, tt := range tests {
		if got := PortForServer(tt.mode); got != tt.want {
			t.Errorf("PortForServer(%q) = %d, want %d", tt.mode, got, tt.want)
		}
	}
}

func TestDefaultBootstrapServerConfig_PortIsNoSec(t *testing.T) {
	for _, host := range []string{"", "localhost", "lwm2m.example.org", "10.0.0.1"} {
		s := DefaultBootstrapServerConfig(host)
		if s.Port != PortForBootstrap("") || s.Port != DefaultPortBootstrapNoSec {
			t.Errorf("host %q: port = %d, want %d", host, s.Port, DefaultPortBootstrapNoSec)
		}
	}
}

func TestDefaultBootstrapServerConfig(t *testing.T) {
	want := ServerSecurityConfig{
		Host:                          "bs.example.org",
		Port:                          5689,
		IsBootstrapServer:             true,
		SecurityMode:                  ModeNoSec,
		ServerPublicKey:               "",
		ClientHoldOffTime:             1,
		ServerID:                      111,
		BootstrapServerAccountTimeout: 0,
	}
	if got := DefaultBootstrapServerConfig("bs.example.org"); got != want {
		t.Errorf("DefaultBootstrapServerConfig() = %+v, want %+v", got, want)
	}
}

func TestDefaultLwM2MServerConfig(t *testing.T) {
	s := DefaultLwM2MServerConfig("")
	if s.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", s.Host)
	}
	if s.IsBootstrapServer {
		t.Error("IsBootstrapServer should be false")
	}
	if s.Port != 5685 {
		t.Errorf("Port = %d, want 5685", s.Port)
	}
	if s.ServerID != 123 {
		t.Errorf("ServerID = %d, want 123", s.ServerID)
	}
	if s.SecurityMode != ModeNoSec {
		t.Errorf("SecurityMode = %q, want NO_SEC", s.SecurityMode)
	}
}

func TestDefaultBootstrapServersConfig(t *testing.T) {
	want := BootstrapServersSecurityConfig{
		ShortID:          123,
		Lifetime:         300,
		DefaultMinPeriod: 1,
		NotifIfDisabled:  true,
		Binding:          "U",
	}
	if got := DefaultBootstrapServersConfig(); got != want {
		t.Errorf("DefaultBootstrapServersConfig() = %+v, want %+v", got, want)
	}
}

func TestDefaultProfileConfig(t *testing.T) {
	p := DefaultProfileConfig("h")
	if p.Bootstrap.BootstrapServer.Host != "h" || p.Bootstrap.LwM2MServer.Host != "h" {
		t.Error("both servers should use the given host")
	}
	if p.ObserveAttr.Observe == nil || p.ObserveAttr.KeyName == nil {
		t.Error("observe lists should be empty, not nil")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default profile should validate, got %v", err)
	}
}

func TestDefaultClientSecurityConfig(t *testing.T) {
	tests := []struct {
		mode SecurityMode
		want ClientSecurityConfig
	}{
		{ModeNoSec, ClientSecurityConfig{Mode: ModeNoSec}},
		{"", ClientSecurityConfig{Mode: ModeNoSec}},
		{ModePSK, ClientSecurityConfig{Mode: ModePSK, PSK: &ClientPSK{Endpoint: "dev-1", Identity: "dev-1", Key: ""}}},
		{ModeRPK, ClientSecurityConfig{Mode: ModeRPK, RPK: &ClientRPK{Key: ""}}},
		{ModeX509, ClientSecurityConfig{Mode: ModeX509, X509: &ClientX509{X509: true}}},
	}
	for _, tt := range tests {
		got := DefaultClientSecurityConfig(tt.mode, "dev-1")
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DefaultClientSecurityConfig(%q) = %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}

func TestSecurityConfigFromProfile(t *testing.T) {
	p := DefaultProfileConfig("h")
	p.ObserveAttr.Observe = []string{"/3/0/9"}

	doc := SecurityConfigFromProfile(p)
	doc.ObserveAttr.Observe[0] = "/3/0/0"

	if p.ObserveAttr.Observe[0] != "/3/0/9" {
		t.Error("SecurityConfigFromProfile should copy the profile")
	}
	if doc.Client.Mode != ModeNoSec {
		t.Errorf("client mode = %q, want NO_SEC", doc.Client.Mode)
	}
}
