package config

import "errors"

var (
	// ErrInvalidDuration is returned when a break limit, auto reset or snooze is negative
	ErrInvalidDuration = errors.New("break durations must not be negative")

	// ErrInvalidMaxPreludes is returned when max preludes is below -1
	ErrInvalidMaxPreludes = errors.New("max preludes must be -1 or more")

	// ErrInvalidMonitor is returned when a monitor threshold is negative
	ErrInvalidMonitor = errors.New("monitor thresholds must not be negative")

	// ErrInvalidPollInterval is returned when the poll interval is not positive
	ErrInvalidPollInterval = errors.New("poll interval must be positive")

	// ErrInvalidMode is returned for an unknown operation or usage mode
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidInsistPolicy is returned for an unknown insist policy
	ErrInvalidInsistPolicy = errors.New("invalid insist policy")

	// ErrInvalidAutoReset is returned when the mode auto reset is below -1
	ErrInvalidAutoReset = errors.New("operation mode auto reset must be -1 or more")

	// ErrUnknownKey is returned by Value and SetValue for an unknown key
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue is returned by SetValue when a value cannot be parsed
	ErrInvalidValue = errors.New("invalid config value")

	// ErrConfigDirCreation is returned when the config directory cannot be created
	ErrConfigDirCreation = errors.New("failed to create config directory")
)
