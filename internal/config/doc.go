// Package config loads, normalizes, and validates autolib configuration data.
package config
