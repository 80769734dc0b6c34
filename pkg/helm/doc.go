// package helm sequences the lifecycle of releases through the helm CLI.
//
// All operations are synchronous; the helm command itself is the suspension point as
// install and upgrade are invoked with an intrinsic wait. Confirming that the
// cluster-visible state matches intent afterwards is the caller's responsibility,
// typically through the conditions in the wait package.
package helm
