//go:build dev

package devmode

// Enabled is true only in builds compiled with the dev tag.
const Enabled = true
