package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/brokerflow/internal/loadgen"
)

// Default configuration constants.
const (
	defaultPolicies    = 500
	defaultAdvanceRate = 0.25
	defaultTopN        = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numPolicies = flag.Int("policies", defaultPolicies, "Number of policies to create")
		advanceRate = flag.Float64("advance", defaultAdvanceRate, "Share of created policies moved to Drafted")
		topN        = flag.Int("top", defaultTopN, "Number of ranked entries to print")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "File to save the generated policies to")
		logFile     = flag.String("log", "", "Log file (default: loadgen_TIMESTAMP.log)")
		logFormat   = flag.String("format", "text", "Log format: text or json")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	closer, err := loadgen.SetupLogging(*logFile, *logFormat, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:     *baseURL,
		NumPolicies: *numPolicies,
		Workers:     max(*workers, 1),
		Timeout:     *timeout,
		AdvanceRate: *advanceRate,
		TopN:        *topN,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if _, err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		cancel()
		_ = closer.Close()
		os.Exit(1)
	}
}
