package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	return on
})

// InTestMode reports whether ODYSSEY_TEST_MODE is set, in which case the
// binaries exit before opening storage or listening.
func InTestMode() bool {
	return testMode()
}
