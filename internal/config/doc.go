// Package config loads servar's runtime configuration.
//
// Values are resolved from lowest to highest precedence: built-in defaults,
// an optional YAML file, an optional .env file, the process environment and
// finally command-line flags (applied by the cmd package).
package config
