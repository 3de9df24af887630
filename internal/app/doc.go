// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the lifecycle of a single forward pass:
// load the configuration, assemble the weight provider, run the pipeline and
// report the result. It is decoupled from any specific entrypoint like a CLI.
package app
