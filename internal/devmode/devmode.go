//go:build !dev

// Package devmode gates the client-side developer bypass at compile time.
// Production builds compile without the dev tag, so the bypass branch in the
// resolver is statically unreachable there.
package devmode

// Enabled is true only in builds compiled with the dev tag.
const Enabled = false
