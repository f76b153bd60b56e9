package core

import "context"

type (
	// Transactor runs fn atomically: every repository call made with the ctx passed to fn
	// is committed together, or not at all if fn returns an error.
	Transactor interface {
		WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	// Logger is any service that can log (and possibly report) messages.
	// expected args fmt: error, map[string]interface{}, user.User
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}
)
