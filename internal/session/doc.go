// Package session correlates recorder file-open and file-close events into
// logical broadcasts.
//
// A broadcast ("session") carries an ordered list of parts, one per recorded
// file. Separate files from the same room whose gap stays inside the
// proximity window are treated as segments of one broadcast rather than
// distinct ones, which is how recorder file rotation is papered over. The
// Tracker owns all session state behind a mutex; callers get copies and
// mutate through its methods.
package session
