// package runner provides synchronous execution of external command line tools.
//
// Every invocation and its outcome is logged, including the captured stderr on
// failure, so that a failing test run keeps the full output of the external
// tool for debugging.
package runner
