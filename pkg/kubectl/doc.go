// package kubectl wraps the cluster-admin operations that are performed by shelling
// out to the kubectl CLI rather than through the API client: listing replica-scaled
// resources from tabular output and provisioning registry pull secrets.
package kubectl
