// package logger implements the logging function used throughout the test framework.
//
// The output of the log lines can be controlled with [LogWriter] and logging can be
// silenced entirely (e.g. in unit tests) by setting [DisableLogging].
//
// # Example redirecting output
//
//	import "github.com/chartsuite/chartsuite/pkg/logger"
//
//	func TestExample() {
//		logger.LogWriter = myBuffer
//
//		logger.Log("This will now output to the buffer")
//	}
package logger
