// Package log provides a context-scoped logrus entry shared by every
// package in this module.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerContextKeyType struct{}

var loggerContextKey = loggerContextKeyType{}

var root = logrus.NewEntry(logrus.StandardLogger())

// WithContext returns a context carrying the given logrus fields, layered
// on top of any logger already attached to ctx.
func WithContext(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, loggerContextKey, G(ctx).WithFields(fields))
}

// G returns the logger associated with ctx, or the package root logger if
// none has been attached.
func G(ctx context.Context) *logrus.Entry {
	if l, ok := ctx.Value(loggerContextKey).(*logrus.Entry); ok {
		return l
	}
	return root
}
