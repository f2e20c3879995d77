// Package daemon assembles the aftercast runtime: the webhook ingestion
// listener, the local control API, the task queue, the upload sweep, and the
// notification bridge. A file lock under the log directory keeps a second
// instance from racing the first over the same recordings.
package daemon
