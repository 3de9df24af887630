// Package pipeline runs a single forward pass over a layered network.
//
// # Stages
//
// Every layer is a stage. A stage spawns one supervised worker per neuron,
// waits on a counting barrier until all of them have signalled, writes each
// neuron's outputs onto a fresh edge set, and then spawns the next stage (or
// the output stage after the last layer) as an isolated task that it joins
// before returning. Stages share nothing mutable: the only data path between
// a stage and its child is the edge set.
//
// # Failure
//
// The first failing worker poisons its layer's barrier, so the coordinator
// never waits on signals that will not come; the errgroup cancels the
// remaining workers. Failures propagate upward unchanged: a parent fails if
// its child fails, and the driver reports no result.
//
// # Handshake
//
// After forwarding its outputs a stage sends two empty tokens upstream to its
// spawner. The tokens carry no value. The spawner drains them after joining the
// child and only logs what it received; a missing token is never an error.
// WithoutHandshake disables the channel entirely.
package pipeline
