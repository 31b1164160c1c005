/*
Package servicebus provides the topic-keyed message bus shared by the rideshare services.
It offers request/reply with correlation ids and a bounded timeout, fire-and-forget emission,
and consumer-group handler binding, while remaining decoupled from concrete transports via interfaces.
*/
package servicebus
