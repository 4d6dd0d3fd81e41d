// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package errutil provides helpers for oops-coded errors.
package errutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at ERROR level with its oops code and context, if any.
// Extra attrs are appended after the error attributes.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	logger.ErrorContext(ctx, msg, append(errorAttrs(err), attrs...)...)
}

// LogWarn is LogError at WARN level, for failures the caller recovers from.
func LogWarn(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	logger.WarnContext(ctx, msg, append(errorAttrs(err), attrs...)...)
}

func errorAttrs(err error) []any {
	fields := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := Code(err); code != "" {
			fields = append(fields, "code", code)
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			fields = append(fields, "context", errCtx)
		}
	}
	return fields
}

// Code returns the oops code carried by err, or "".
func Code(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	raw := oopsErr.Code()
	if raw == nil {
		return ""
	}
	return fmt.Sprint(raw)
}

// HasCode reports whether err carries the oops code code.
func HasCode(err error, code string) bool {
	return code != "" && Code(err) == code
}
