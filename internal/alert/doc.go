// Package alert decides which deal candidates reach the user and delivers
// them. The deduper suppresses repeat notifications of the same deal
// signature inside a cooldown window; notifiers fan the surviving
// candidates out to the configured channels.
package alert
