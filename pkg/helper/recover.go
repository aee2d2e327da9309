package helper

import (
	"fmt"
	"runtime/debug"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

// RecoverToError converts a panic into *err so an interactive loop can
// report it and carry on.
// Usage: defer helper.RecoverToError(logger, "action-name", &err)
func RecoverToError(log *logger.Logger, name string, err *error) {
	if r := recover(); r != nil {
		log.Errorf("PANIC recovered in %s: %v\nStack: %s", name, r, debug.Stack())
		*err = fmt.Errorf("%s panicked: %v", name, r)
	}
}
