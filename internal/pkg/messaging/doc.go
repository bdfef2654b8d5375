// Package messaging publishes and consumes broker messages without tying
// business code to one broker.
//
// Drivers exist for NSQ, NATS, Kafka, Google Pub/Sub and an in-process memory
// broker. Every driver carries string headers next to the body (NSQ has no
// native headers, so the NSQ driver wraps both in a JSON envelope).
//
// Consume blocks until its context is done. A handler returning nil acks the
// message; a handler returning an error or panicking nacks it so the broker
// may redeliver, where the broker supports that.
package messaging
