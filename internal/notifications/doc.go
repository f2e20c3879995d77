// Package notifications delivers task outcome events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. The
// per-task-kind outcome matrix decides which completions and failures
// actually send, so a deployment can alert on upload failures without being
// paged for every finished overlay render.
//
// Extend this package if you need alternative transports; pipeline code
// depends only on the Service interface.
package notifications
