// Package services provides shared error classification markers and context
// plumbing used by autolib's external collaborators and pipeline components.
package services
