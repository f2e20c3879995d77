// Package webhook ingests recording-lifecycle events over HTTP.
//
// Two agents post here with different payload shapes: the recorder agent at
// /webhook with relative paths against the configured recording directory,
// and blrec at /blrec with absolute paths and no display metadata. Both are
// normalized into session observations before dispatch.
package webhook
