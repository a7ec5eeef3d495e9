// Package log defines the structured logging facade used throughout
// the domain finder.
//
// Library code depends only on the [Logger] interface; executables
// decide the backend. [NewZerologAdapter] wraps rs/zerolog with a
// console writer, [NewNoopLogger] discards everything and is the
// default for embedded use.
//
//	logger := log.NewZerologAdapter()
//	logger.Info("probe complete",
//	    log.String("domain", "abcd.com"),
//	    log.Duration("elapsed", elapsed),
//	)
package log
