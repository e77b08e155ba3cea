package config

import "fmt"

// TLS modes.
const (
	TLSDisabled = "disabled"
	TLSServer   = "server"
	TLSMutual   = "mutual"
)

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}

	switch tls.Mode {
	case TLSDisabled:
		return nil
	case TLSServer:
		return validatePEMSources(tls, false)
	case TLSMutual:
		if err := validatePEMSources(tls, true); err != nil {
			return err
		}
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
			return nil
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
}

// validatePEMSources checks that each required PEM has exactly one source,
// a file path or inline content.
func validatePEMSources(tls TLSConfig, needCA bool) error {
	sources := []struct {
		name, file, content string
		required            bool
	}{
		{"cert", tls.CertFile, tls.CertContent, true},
		{"key", tls.KeyFile, tls.KeyContent, true},
		{"ca", tls.CAFile, tls.CAContent, needCA},
	}

	for _, s := range sources {
		if s.file != "" && s.content != "" {
			return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", s.name, s.name)
		}
		if s.required && s.file == "" && s.content == "" {
			return fmt.Errorf("TLS %s is required for %s mode (provide either %sFile or %sContent)", s.name, tls.Mode, s.name, s.name)
		}
	}
	return nil
}
