// Package logger holds the process-wide zap sugared logger used across
// the ledger API. Init picks the encoder from the runtime environment;
// Get hands out the shared instance.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init configures the global logger once. Production gets the JSON
// encoder; every other environment gets the human-readable console one.
func Init(env string) {
	once.Do(func() {
		build := zap.NewDevelopment
		if env == "production" {
			build = zap.NewProduction
		}

		base, err := build()
		if err != nil {
			base = zap.NewNop()
		}
		sugar = base.Sugar()
	})
}

// Get returns the shared sugared logger, initializing a development
// logger when Init was never called (tests, mostly).
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Sync flushes buffered entries. Deferred from main.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
