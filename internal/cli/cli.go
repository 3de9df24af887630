package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/layerflow/internal/app"
	"github.com/specialistvlad/layerflow/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("layerflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
LayerFlow - A layer-pipelined, fully concurrent forward pass over a layered network.

Usage:
  layerflow [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Either CONFIG_PATH or -weights is required. Flags override values declared in
the configuration.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the config file or directory.")
	cFlag := flagSet.String("c", "", "Path to the config file or directory (shorthand).")
	weightsFlag := flagSet.String("weights", "", "Path to a line-oriented weight file.")
	neuronsFlag := flagSet.Int("neurons", 0, "Number of input neurons (neuron_count).")
	layersFlag := flagSet.Int("layers", 0, "Number of layers (layer_count).")
	perLayerFlag := flagSet.Int("neurons-per-layer", 0, "Width of every layer after the input layer.")
	reportAllFlag := flagSet.Bool("report-all", false, "Also print the second result, Fx(X2).")
	noHandshakeFlag := flagSet.Bool("no-handshake", false, "Disable the upstream completion tokens between stages.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" && *weightsFlag == "" {
		slog.Debug("No config path or weights file provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	for name, v := range map[string]int{"neurons": *neuronsFlag, "layers": *layersFlag, "neurons-per-layer": *perLayerFlag} {
		if v < 0 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid %s: must not be negative", name)}
		}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		ConfigPath:  path,
		WeightsPath: *weightsFlag,
		Network: config.Network{
			NeuronCount:     *neuronsFlag,
			LayerCount:      *layersFlag,
			NeuronsPerLayer: *perLayerFlag,
		},
		ReportAll:       *reportAllFlag,
		NoHandshake:     *noHandshakeFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
