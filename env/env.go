//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements global environment for the SMPC system.
package env

import (
	"crypto/rand"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config defines the global system configuration for the SMPC
// system. It configures system operation for all SMPC modules. Config
// must not be modified after being passed to any SMPC module. It is
// safe for concurrent use by multiple modules as they do not modify
// it.
type Config struct {
	Rand   io.Reader
	Logger *zerolog.Logger
}

// GetRandom returns the source of entropy for share generation,
// triple generation, and key derivation.
func (config *Config) GetRandom() io.Reader {
	if config != nil && config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// GetLogger returns the logger for SMPC modules. If the configuration
// does not specify a logger, the function returns the global zerolog
// logger.
func (config *Config) GetLogger() zerolog.Logger {
	if config != nil && config.Logger != nil {
		return *config.Logger
	}
	return log.Logger
}
