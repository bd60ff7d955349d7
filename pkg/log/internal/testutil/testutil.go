// Package testutil builds observed loggers for log package tests.
package testutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewObserved returns a sugared logger backed by an in-memory core and the
// observed log store for asserting on entries.
func NewObserved(level zapcore.Level) (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core).Sugar(), logs
}
