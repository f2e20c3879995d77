// Package platform talks to the remote video platform: room and streamer
// metadata lookups, the recent-archive listing used for upload
// reconciliation, and the long-running upload/download sessions the task
// queue wraps.
//
// Sessions are asynchronous: Start launches the transfer, progress and
// terminal outcome arrive through the event callbacks registered at
// construction, and Pause/Resume/Cancel act on the in-flight transfer.
// A session delivers exactly one terminal event (completed or error).
package platform
