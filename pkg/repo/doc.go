// package repo resolves chart versions from a remote chart repository index.
//
// It is used when a baseline version is requested as "latest" rather than pinned,
// looking the version up from the repository's index.yaml.
package repo
