package paypal

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Accepted prefixes of PayPal REST app credentials. Live client IDs start
// with "A", sandbox ones with "sb-". Secrets start with "E".
const (
	livePrefix    = "A"
	sandboxPrefix = "sb-"
	secretPrefix  = "E"
)

// Stripe key material is the most common misconfiguration: both dashboards
// hand out secrets that look superficially similar.
var stripePrefixes = []string{"sk_", "pk_", "rk_"}

// CredentialError indicates that the configured credentials are unusable
// (wrong provider, wrong prefix, or demo mode is forced). It is the
// demo-eligible condition: callers substitute a demo order instead of
// failing the request.
type CredentialError struct {
	Reason string
}

func (e *CredentialError) Error() string {
	return "paypal credentials: " + e.Reason
}

// IsCredentialError reports whether err (or its cause) is a CredentialError.
func IsCredentialError(err error) bool {
	_, ok := errors.Cause(err).(*CredentialError)
	return ok
}

// checkCredentials gates outbound calls on the shape of the configured
// credential pair. Zero network calls are made here. Only prefix fragments
// are ever logged.
func (p *Provider) checkCredentials() error {
	if p.cfg.Mode == ModeDemo {
		return &CredentialError{Reason: "demo mode is enabled"}
	}
	for _, pref := range stripePrefixes {
		if strings.HasPrefix(p.cfg.ClientID, pref) {
			p.l.Warn(
				"Client ID looks like a Stripe key.",
				zap.String("client_id_prefix", credFragment(p.cfg.ClientID)),
			)
			return &CredentialError{Reason: fmt.Sprintf("client id starts with %q, this is a Stripe key, not a PayPal client id", pref)}
		}
		if strings.HasPrefix(p.cfg.Secret, pref) {
			p.l.Warn(
				"Secret looks like a Stripe key.",
				zap.String("secret_prefix", credFragment(p.cfg.Secret)),
			)
			return &CredentialError{Reason: fmt.Sprintf("secret starts with %q, this is a Stripe key, not a PayPal secret", pref)}
		}
	}
	if !strings.HasPrefix(p.cfg.ClientID, livePrefix) && !strings.HasPrefix(p.cfg.ClientID, sandboxPrefix) {
		p.l.Warn(
			"Client ID has no accepted live or sandbox prefix.",
			zap.String("client_id_prefix", credFragment(p.cfg.ClientID)),
		)
		return &CredentialError{Reason: fmt.Sprintf("client id does not start with %q (live) or %q (sandbox)", livePrefix, sandboxPrefix)}
	}
	if !strings.HasPrefix(p.cfg.Secret, secretPrefix) {
		p.l.Warn(
			"Secret has no accepted prefix.",
			zap.String("secret_prefix", credFragment(p.cfg.Secret)),
		)
		return &CredentialError{Reason: fmt.Sprintf("secret does not start with %q", secretPrefix)}
	}
	return nil
}

// credFragment returns a short prefix of a credential safe to log.
func credFragment(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[:4] + "..."
}
