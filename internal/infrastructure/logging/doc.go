// Package logging provides structured logging for Air Bridge.
//
// It wraps log/slog with the service's default attributes and
// config-driven level, format and destination. Consumer packages accept
// their own small Logger interface so they stay decoupled from this one.
//
// Raw device descriptors must never reach a logger — pass them through
// device.MaskSensitiveDeviceData first.
package logging
