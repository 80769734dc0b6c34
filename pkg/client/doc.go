// package client provides a thin wrapper around the controller-runtime client.
//
// It provides the namespace and pod operations needed by the test framework on top of
// the standard operations (such as Get, Patch, Delete) for interacting with a
// Kubernetes cluster.
//
// Note: The client when created is set to use lazy discovery and doesn't pre-cache
// resource types from the cluster. This allows creation of a Client instance before
// connectivity to the api-server has been confirmed.
//
// For the full list of available functions make sure to also check [cr.Client] for the controller-runtime methods.
package client
