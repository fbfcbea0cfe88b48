// Package outbox contains the PendingAck aggregate, the durable record of a
// command sent over the radio that has not been acknowledged yet.
//
// Each row stores the exact transmitted payload so retries and restart
// recovery resend the original bytes, and keeps the first-send timestamp so
// the linearly widening retry window survives a process restart.
package outbox
