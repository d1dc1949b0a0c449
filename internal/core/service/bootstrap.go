package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// TransportEndpoint describes the listeners of one transport server.
// Zero ports fall back to the mode defaults.
type TransportEndpoint struct {
	Host           string
	Port           int
	SecureHost     string
	SecurePort     int
	SecurePortCert int

	// PublicX and PublicY are the hex coordinates of the P-256 server key.
	PublicX string
	PublicY string
}

// BootstrapConfig holds the bootstrap and LwM2M server transports.
type BootstrapConfig struct {
	Bootstrap TransportEndpoint
	Server    TransportEndpoint
}

// BootstrapService answers which server-side security settings a device
// should be provisioned with for a given mode.
type BootstrapService struct {
	cfg        BootstrapConfig
	publicKeys map[bool]string
}

// NewBootstrapService decodes the configured public keys.
func NewBootstrapService(cfg BootstrapConfig) (*BootstrapService, error) {
	s := &BootstrapService{cfg: cfg, publicKeys: make(map[bool]string, 2)}
	for isBootstrap, ep := range map[bool]TransportEndpoint{true: cfg.Bootstrap, false: cfg.Server} {
		key, err := EncodePublicKey(ep.PublicX, ep.PublicY)
		if err != nil {
			return nil, fmt.Errorf("bootstrap=%v: %w", isBootstrap, err)
		}
		s.publicKeys[isBootstrap] = key
	}
	return s, nil
}

// SecurityInfo returns the server entry for mode on the bootstrap server
// (isBootstrap) or the LwM2M server.
func (s *BootstrapService) SecurityInfo(mode domain.SecurityMode, isBootstrap bool) (domain.ServerSecurityConfig, error) {
	if mode == "" {
		mode = domain.ModeNoSec
	}
	if !mode.IsValid() {
		return domain.ServerSecurityConfig{}, domain.ErrInvalidSecurityMode.WithDetails(string(mode))
	}

	ep, cfg, defaultPort := s.cfg.Server, domain.DefaultLwM2MServerConfig(""), domain.PortForServer(mode)
	if isBootstrap {
		ep, cfg, defaultPort = s.cfg.Bootstrap, domain.DefaultBootstrapServerConfig(""), domain.PortForBootstrap(mode)
	}
	cfg.SecurityMode = mode

	switch mode {
	case domain.ModeNoSec:
		cfg.Host = hostOr(ep.Host)
		cfg.Port = portOr(ep.Port, defaultPort)
	case domain.ModePSK, domain.ModeRPK:
		cfg.Host = hostOr(ep.SecureHost, ep.Host)
		cfg.Port = portOr(ep.SecurePort, defaultPort)
	case domain.ModeX509:
		cfg.Host = hostOr(ep.SecureHost, ep.Host)
		cfg.Port = portOr(ep.SecurePortCert, defaultPort)
	}

	if mode == domain.ModeRPK || mode == domain.ModeX509 {
		cfg.ServerPublicKey = s.publicKeys[isBootstrap]
	}
	return cfg, nil
}

// EncodePublicKey returns the hex DER SubjectPublicKeyInfo of the P-256
// point (x, y). Both empty yields "".
func EncodePublicKey(xHex, yHex string) (string, error) {
	if xHex == "" && yHex == "" {
		return "", nil
	}
	x, ok := new(big.Int).SetString(xHex, 16)
	if !ok {
		return "", domain.ErrInvalidArgument.WithDetails("public_x is not hex")
	}
	y, ok := new(big.Int).SetString(yHex, 16)
	if !ok {
		return "", domain.ErrInvalidArgument.WithDetails("public_y is not hex")
	}
	curve := elliptic.P256()
	if !curve.IsOnCurve(x, y) {
		return "", domain.ErrInvalidArgument.WithDetails("public key is not a P-256 point")
	}

	der, err := x509.MarshalPKIXPublicKey(&ecdsa.PublicKey{Curve: curve, X: x, Y: y})
	if err != nil {
		return "", domain.ErrInvalidArgument.WithCause(err)
	}
	return hex.EncodeToString(der), nil
}

func hostOr(hosts ...string) string {
	for _, h := range hosts {
		if h != "" && h != "0.0.0.0" && h != "::" {
			return h
		}
	}
	return domain.DefaultHostName
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
