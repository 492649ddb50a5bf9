// Package workqueue holds the in-memory working set of book units awaiting
// review or organization. Every mutation recomputes the unit's content
// fingerprint and writes through to the history store while the queue lock
// is held, so the durable record never trails the queue. The queue itself
// is volatile: at startup it is rebuilt from pending history records.
package workqueue
