// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
)

// ValidateCore ensures critical configuration is present.
func (c *Config) ValidateCore() error {
	var missing []string

	if strings.TrimSpace(c.Database.URL) == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if strings.TrimSpace(c.Redis.URL) == "" {
		missing = append(missing, "REDIS_URL")
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" || c.JWT.Secret == "change-this-secret" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// ValidateChain ensures the probe commands have a node and deployments file to
// talk to. The API server runs without chain access and falls back to static
// token payloads, so this is only enforced by the probes.
func (c *Config) ValidateChain() error {
	var missing []string

	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		missing = append(missing, "CHAIN_RPC_URL")
	}
	if strings.TrimSpace(c.Chain.DeploymentsFile) == "" {
		missing = append(missing, "CHAIN_DEPLOYMENTS_FILE")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}
