// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from various
// sources.
//
// The `config.Network` value is the single source of truth for the topology
// used by the `pipeline` package. Concrete loaders, such as the HCL one, live
// in separate packages.
package config
