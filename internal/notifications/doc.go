// Package notifications pushes pipeline events to an ntfy topic. Each event
// category can be toggled in configuration; with no topic configured the
// service degrades to a noop so callers never branch on setup.
package notifications
