// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"log/slog"

	"github.com/hiveauth/authcore/internal/logging"
)

// Option configures an Auth at construction time.
type Option func(*authOptions)

type authOptions struct {
	cacheSize int
	logger    *slog.Logger
}

func defaultOptions() *authOptions {
	return &authOptions{
		cacheSize: defaultCacheSize,
		logger:    logging.Setup("authcore", "", "json", nil),
	}
}

// WithCacheSize overrides the number of decisions cached per user. The
// zero value keeps the package default.
func WithCacheSize(n int) Option {
	return func(o *authOptions) { o.cacheSize = n }
}

// WithLogger overrides the logger used for warnings emitted while
// tolerating inconsistent storage (dangling role references, unknown gate
// overlay principals, and the like).
func WithLogger(logger *slog.Logger) Option {
	return func(o *authOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
