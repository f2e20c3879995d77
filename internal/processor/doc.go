// Package processor orchestrates post-processing of closed recording parts.
//
// A closed part flows through policy gates, an optional chat-overlay render
// and merge, and finally upload. Overlay and merge run as queue tasks so
// they stay visible and controllable from the API; the processor sequences
// them by waiting on their terminal transitions. A once-per-minute sweep
// uploads the handled prefix of every auto-merge session and reconciles
// fresh uploads against the platform's recent-archive listing to learn the
// archive identifier.
package processor
