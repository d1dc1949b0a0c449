package domain

// PortForBootstrap returns the bootstrap server port for mode.
// An empty mode counts as NO_SEC.
func PortForBootstrap(mode SecurityMode) int {
	switch mode.orNoSec() {
	case ModeNoSec:
		return DefaultPortBootstrapNoSec
	case ModeX509:
		return DefaultPortBootstrapCert
	default:
		return DefaultPortBootstrapSec
	}
}

// PortForServer returns the LwM2M server port for mode.
// An empty mode counts as NO_SEC.
func PortForServer(mode SecurityMode) int {
	switch mode.orNoSec() {
	case ModeNoSec:
		return DefaultPortServerNoSec
	case ModeX509:
		return DefaultPortServerCert
	default:
		return DefaultPortServerSec
	}
}

// DefaultBootstrapServersConfig returns the shared bootstrap parameters.
func DefaultBootstrapServersConfig() BootstrapServersSecurityConfig {
	return BootstrapServersSecurityConfig{
		ShortID:          DefaultServerID,
		Lifetime:         DefaultLifetime,
		DefaultMinPeriod: DefaultMinPeriod,
		NotifIfDisabled:  DefaultNotifIfDisabled,
		Binding:          DefaultBinding,
	}
}

// DefaultBootstrapServerConfig returns the NO_SEC bootstrap server on host.
func DefaultBootstrapServerConfig(host string) ServerSecurityConfig {
	return ServerSecurityConfig{
		Host:                          hostOrDefault(host),
		Port:                          PortForBootstrap(""),
		IsBootstrapServer:             true,
		SecurityMode:                  ModeNoSec,
		ServerPublicKey:               "",
		ClientHoldOffTime:             DefaultHoldOffTime,
		ServerID:                      DefaultBootstrapID,
		BootstrapServerAccountTimeout: DefaultBootstrapServerAccountTimeout,
	}
}

// DefaultLwM2MServerConfig returns the NO_SEC LwM2M server on host.
func DefaultLwM2MServerConfig(host string) ServerSecurityConfig {
	s := DefaultBootstrapServerConfig(host)
	s.IsBootstrapServer = false
	s.Port = PortForServer("")
	s.ServerID = DefaultServerID
	return s
}

// DefaultProfileConfig returns the transport config of a new device profile.
func DefaultProfileConfig(host string) *ProfileConfig {
	return &ProfileConfig{
		Bootstrap: BootstrapSecurityConfig{
			Servers:         DefaultBootstrapServersConfig(),
			BootstrapServer: DefaultBootstrapServerConfig(host),
			LwM2MServer:     DefaultLwM2MServerConfig(host),
		},
		ObserveAttr: ObserveAttr{}.normalized(),
	}
}

// DefaultSecurityConfig returns profile defaults with a NO_SEC client.
func DefaultSecurityConfig(host string) *SecurityConfig {
	p := DefaultProfileConfig(host)
	return &SecurityConfig{
		Bootstrap:   p.Bootstrap,
		Client:      DefaultClientSecurityConfig(ModeNoSec, ""),
		ObserveAttr: p.ObserveAttr,
	}
}

// DefaultClientSecurityConfig returns the initial client variant for mode.
// PSK starts with identity equal to endpoint and an empty key.
func DefaultClientSecurityConfig(mode SecurityMode, endpoint string) ClientSecurityConfig {
	mode = mode.orNoSec()
	c := ClientSecurityConfig{Mode: mode}
	switch mode {
	case ModePSK:
		c.PSK = &ClientPSK{Endpoint: endpoint, Identity: endpoint, Key: ""}
	case ModeRPK:
		c.RPK = &ClientRPK{Key: ""}
	case ModeX509:
		c.X509 = &ClientX509{X509: true}
	}
	return c
}

// SecurityConfigFromProfile combines a profile config with a NO_SEC client.
func SecurityConfigFromProfile(p *ProfileConfig) *SecurityConfig {
	cp := p.Clone()
	return &SecurityConfig{
		Bootstrap:   cp.Bootstrap,
		Client:      DefaultClientSecurityConfig(ModeNoSec, ""),
		ObserveAttr: cp.ObserveAttr,
	}
}

func hostOrDefault(host string) string {
	if host == "" {
		return DefaultHostName
	}
	return host
}
