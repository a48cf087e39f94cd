// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

// Package errutil holds helpers for logging and asserting oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and context are
// emitted as separate attributes; attrs are appended as given.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields, attrs...)
	fields = append(fields, "error", err.Error())

	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			fields = append(fields, "code", code)
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			fields = append(fields, "context", errCtx)
		}
	}

	logger.ErrorContext(ctx, msg, fields...)
}
