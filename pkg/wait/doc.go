// package wait provides functions to help with waiting for certain conditions to be true.
//
// A `For` function is provided that polls a given `WaitCondition` until it results in
// true, errors, or exhausts its retry budget. The budget is expressed as a number of
// retries with a fixed delay between attempts, so the worst-case elapsed time of a wait
// is always retries x delay.
//
// A collection of conditions are also included covering the convergence checks used by
// the test framework: release deployment, namespace deletion, pod readiness and
// termination, and replica-scaled resource readiness.
//
// # Example
//
//	err := wait.For(
//		wait.IsNamespaceGone(ctx, cluster, "test-namespace"),
//		wait.WithDescription("namespace 'test-namespace' to be deleted"),
//		wait.WithRetries(60),
//	)
//	if err != nil {
//		return err
//	}
//
// The WaitCondition functions return a success boolean and an error. The polling of the
// condition will continue until one of three things occurs:
//
//  1. The success boolean is returned as `true`
//  2. An error is returned from the WaitCondition function
//  3. The retry budget is exhausted, resulting in a [TimeoutError] being returned
package wait
