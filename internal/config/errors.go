package config

import "errors"

// Sentinel error kinds for configuration loading.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrDotEnv marks a .env file that was requested but could not be read.
	ErrDotEnv = errors.New("dotenv file unreadable")
)
