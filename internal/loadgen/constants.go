package loadgen

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	progressInterval     = time.Second
	directoryPermission  = 0750
)
