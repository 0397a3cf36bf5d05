// Package audit relays security events (logins, renewals, rejected
// replays, revocations) to a pluggable sink off the request path.
//
// A [Dispatcher] owns one worker goroutine and a bounded queue. When the
// queue is full it either drops and counts the event or blocks the
// caller, depending on [Config.DropIfFull]. Which events exist is the
// engine's business; this package never filters them.
//
// Sinks: [NoOpSink], [ChannelSink], [JSONWriterSink] and [SlogSink].
package audit
