// Package queue carries jobs and outcomes between a coordinator and remote
// workers over Redis Streams.
//
// Keys (prefix defaults to "fixmyhalo"):
//
//	<prefix>:jobs               job stream, consumed by group "workers"
//	<prefix>:results:<batchID>  outcome stream of one batch, read with XREAD
//
// Every stream entry carries one JSON document in its "data" field.
package queue
