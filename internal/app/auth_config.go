package app

import "github.com/eventplaza/eventplaza/internal/auth"

// SessionServiceConfig converts AuthConfig into SessionService parameters.
func (c AuthConfig) SessionServiceConfig() auth.SessionConfig {
	ttl := c.Session.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	remember := c.Session.RememberTTL
	if remember <= 0 {
		remember = auth.DefaultRememberTTL
	}

	length := c.Session.TokenLength
	if length <= 0 {
		length = 48
	}

	return auth.SessionConfig{
		SessionTTL:  ttl,
		RememberTTL: remember,
		TokenLength: length,
	}
}

// ResetTokenServiceConfig converts AuthConfig into ResetTokenService parameters.
func (c AuthConfig) ResetTokenServiceConfig() auth.ResetTokenConfig {
	ttl := c.Reset.TTL
	if ttl <= 0 {
		ttl = auth.DefaultResetTokenTTL
	}

	return auth.ResetTokenConfig{
		Secret: c.Reset.Secret,
		Issuer: c.Reset.Issuer,
		TTL:    ttl,
	}
}
