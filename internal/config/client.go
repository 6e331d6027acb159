package config

import (
	"fmt"
	"net"
	"strings"
)

const (
	// DevAPIPort is the port the runs API listens on during development.
	DevAPIPort = 8000
	// ProductionAPIBase is the fixed production address of the runs API.
	ProductionAPIBase = "https://your-production-api-url.com"

	androidEmulatorHost = "10.0.2.2"
	loopbackHost        = "localhost"
)

// Modes accepted by ClientConfig.Mode.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// ClientConfig holds the signals used to pick the runs API base address.
type ClientConfig struct {
	// APIBase, when set, wins over every other signal.
	APIBase string
	Mode    string
	// Platform is the device platform, e.g. "android" or "ios".
	Platform string
	// DevHost is the dev-server host URI ("192.168.1.20:8081"), if known.
	DevHost string
}

// ResolveAPIBase returns the base address the runs client should target.
func ResolveAPIBase(cfg ClientConfig) string {
	if base := strings.TrimSpace(cfg.APIBase); base != "" {
		return strings.TrimRight(base, "/")
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Mode), ModeProduction) {
		return ProductionAPIBase
	}
	return fmt.Sprintf("http://%s:%d", devHost(cfg), DevAPIPort)
}

func devHost(cfg ClientConfig) string {
	if host := hostOnly(cfg.DevHost); host != "" {
		return host
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Platform), "android") {
		return androidEmulatorHost
	}
	return loopbackHost
}

func hostOnly(hostURI string) string {
	hostURI = strings.TrimSpace(hostURI)
	if hostURI == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostURI); err == nil {
		return host
	}
	return strings.Split(hostURI, ":")[0]
}
