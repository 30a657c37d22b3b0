//go:build dev

package mcplogdlog

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"
)

const defaultSocket = "/tmp/mcplogd.sock"
const appName = "tsextern"

// socketEnv overrides defaultSocket.
const socketEnv = "TSEXTERN_LOG_SOCKET"

const (
	levelInfo  = "info"
	levelDebug = "debug"
	levelWarn  = "warn"
	levelError = "error"
)

type entry struct {
	App       string         `json:"app"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	PID       int            `json:"pid"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func Info(message string, metadata map[string]any) {
	log(levelInfo, message, metadata)
}

func Debug(message string, metadata map[string]any) {
	log(levelDebug, message, metadata)
}

func Warn(message string, metadata map[string]any) {
	log(levelWarn, message, metadata)
}

func Error(message string, metadata map[string]any) {
	log(levelError, message, metadata)
}

func socketPath() string {
	if socket := os.Getenv(socketEnv); socket != "" {
		return socket
	}
	return defaultSocket
}

func log(level, message string, metadata map[string]any) {
	conn, err := net.DialTimeout("unix", socketPath(), 100*time.Millisecond)
	if err != nil {
		return
	}
	defer conn.Close()

	e := entry{
		App:       appName,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		PID:       os.Getpid(),
		Metadata:  metadata,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(conn, "%s\n", data)
}
