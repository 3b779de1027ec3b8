// Package executor provides ready-made scheduler executors for common
// transports.
//
// HTTP runs tasks as plain HTTP requests with chunked progress reporting in
// both directions. WebSocket dials the target, optionally writes the task
// body as a binary message and returns the first message received.
//
// Both honor context cancellation, so stopped tasks release their
// connections promptly.
package executor
