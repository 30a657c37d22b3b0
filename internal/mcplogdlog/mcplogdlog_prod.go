//go:build !dev

// Package mcplogdlog sends structured log entries to a local log daemon in
// dev builds. In other builds every call is a no-op.
package mcplogdlog

func Info(string, map[string]any)  {}
func Debug(string, map[string]any) {}
func Warn(string, map[string]any)  {}
func Error(string, map[string]any) {}
