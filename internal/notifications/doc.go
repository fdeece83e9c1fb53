// Package notifications delivers push notifications for session lifecycle
// events through ntfy. When no topic is configured every publish is a no-op,
// so callers never need to guard notification sends.
package notifications
