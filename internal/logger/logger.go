package logger

import (
	"io"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(INFO))
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	}
	return INFO
}

// Init sets the minimum level that gets written.
func Init(level string) {
	currentLevel.Store(int32(ParseLevel(level)))
}

// Enabled reports whether messages at l are written.
func Enabled(l Level) bool {
	return Level(currentLevel.Load()) <= l
}

func Debug(format string, v ...any) {
	if Enabled(DEBUG) {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func Info(format string, v ...any) {
	if Enabled(INFO) {
		log.Printf("[INFO] "+format, v...)
	}
}

func Warn(format string, v ...any) {
	if Enabled(WARN) {
		log.Printf("[WARN] "+format, v...)
	}
}

func Error(format string, v ...any) {
	if Enabled(ERROR) {
		log.Printf("[ERROR] "+format, v...)
	}
}

// SetOutput redirects log output, e.g. to a file or a test buffer.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
