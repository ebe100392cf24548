package loadgen

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/brokerflow/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both stdout and a file. If logFile is
// empty, a timestamped filename is generated. The returned closer releases
// the file.
func SetupLogging(logFile, format string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "loadgen_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithFormat(format), logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`BrokerFlow Load Generator
=========================

Creates random policies against a running BrokerFlow service, moves part of
them through the workflow and verifies the ranked view.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -policies int
        Number of policies to create (default 500)
  -advance float
        Share of created policies moved to Drafted (default 0.25)
  -top int
        Number of ranked entries to print (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        File to save the generated policies to
  -log string
        Log file (default: loadgen_TIMESTAMP.log)
  -format string
        Log format, text or json (default "text")
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run ./cmd/loadgen

  # Larger book against another port
  go run ./cmd/loadgen -policies 5000 -workers 16 -url http://localhost:9090
`)
}
