// Package notifications delivers daemon events via ntfy push notifications.
//
// The default implementation publishes to the topic configured in config.toml
// and gracefully degrades to a no-op when no topic is set. Render-complete
// and stage-failure notifications are gated individually so operators can
// subscribe to only the classes they care about.
//
// Extend this package if you need alternative transports; the daemon depends
// only on the Service interface.
package notifications
