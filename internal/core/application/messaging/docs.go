// Package messaging implements the radio-facing half of the dispatch core:
// the wire codec for frames exchanged with units, the reliable messenger that
// delivers commands at least once with durable pending-ack rows and timer
// retries, and the router that fans inbound frames out to command handlers.
//
// The messenger persists every trackable command before transmitting it, so a
// crash between persist and transmit never loses track of an attempt. Retry
// windows widen linearly with the attempt number; exhausting the retry budget
// fails the delivery and marks the unit errored in one transaction.
//
// The router reads from a bounded queue fed by the transport callback. When
// the queue is full the newest frame is dropped and logged; the transport
// read loop never blocks on processing.
package messaging
