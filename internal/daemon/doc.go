// Package daemon wires the analysis pipeline's collaborators into a single
// lifecycle with flock-based locking to prevent multiple instances from
// polling the same library database.
package daemon
