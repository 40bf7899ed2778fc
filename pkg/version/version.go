// Package version holds the release reported by the server and the CLI.
package version

const Version = "3.0.0"
