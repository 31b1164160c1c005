/*
Package rabbitmq provides a RabbitMQ transport for the service bus.
Topics map to routing keys on one durable topic exchange; every consumer group owns a
durable queue per topic, and reply inboxes use exclusive server-named queues.
The connection redials with backoff and declares every live consumer again on the new connection.
*/
package rabbitmq
