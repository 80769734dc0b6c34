package client

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/errors"
)

// NamespaceCreateError is returned when a namespace is still absent after a create was issued.
type NamespaceCreateError struct {
	Name string
}

func (e *NamespaceCreateError) Error() string {
	return fmt.Sprintf("failed to create namespace: '%s' not found after create", e.Name)
}

// isUnsuccessfulConnectionError are errors returned from the api-server that are likely due to still being setup
func isUnsuccessfulConnectionError(err error) bool {
	return errors.IsServiceUnavailable(err) || errors.IsTimeout(err) ||
		errors.IsServerTimeout(err) || errors.IsUnexpectedServerError(err)
}

// isSuccessfulConnectionError are errors returned from an api-server that is up and responding.
// These could be things like resource not found or permissions issues.
func isSuccessfulConnectionError(err error) bool {
	if _, ok := err.(errors.APIStatus); ok && !isUnsuccessfulConnectionError(err) {
		return true
	}

	return false
}
