// Package cli parses command-line arguments into an app.Config. It validates
// user input and owns process-level concerns such as help output and exit
// codes; flags it sets take precedence over the HCL configuration.
package cli
