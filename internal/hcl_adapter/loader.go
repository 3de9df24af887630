package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	override config.Network
}

// Option configures a Loader.
type Option func(*Loader)

// WithNetworkOverride applies the positive dimensions of n over the declared
// network before neuron expressions are evaluated.
func WithNetworkOverride(n config.Network) Option {
	return func(l *Loader) { l.override = n }
}

// NewLoader creates a new HCL configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type parsedNeuron struct {
	file  string
	block *neuronBlock
}

// Load parses every .hcl file under paths and merges their blocks into one
// model. network, weights and report may each be declared once across all
// files; neuron blocks accumulate.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	var neurons []parsedNeuron
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Network != nil {
			if model.Network != nil {
				return nil, fmt.Errorf("%s: network block declared more than once", file)
			}
			model.Network = &config.Network{
				NeuronCount:     root.Network.NeuronCount,
				LayerCount:      root.Network.LayerCount,
				NeuronsPerLayer: root.Network.NeuronsPerLayer,
			}
		}
		if root.Weights != nil {
			if model.Weights != nil {
				return nil, fmt.Errorf("%s: weights block declared more than once", file)
			}
			model.Weights = translateWeights(file, root.Weights)
		}
		if root.Report != nil {
			if model.Report != nil {
				return nil, fmt.Errorf("%s: report block declared more than once", file)
			}
			report, err := translateReport(root.Report)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Report = report
		}
		for _, n := range root.Neurons {
			neurons = append(neurons, parsedNeuron{file: file, block: n})
		}
	}

	var network config.Network
	if model.Network != nil {
		network = *model.Network
	}
	evalCtx := evalContext(network.Merge(l.override))
	for _, n := range neurons {
		neuron, err := translateNeuron(ctx, n.block, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.file, err)
		}
		model.Neurons = append(model.Neurons, neuron)
	}

	logger.Debug("HCL loading complete.",
		"network", model.Network != nil,
		"weights_file", model.Weights != nil,
		"neurons", len(model.Neurons),
	)
	return model, nil
}

// translateWeights resolves a relative weight file path against the
// directory of the file that declared it.
func translateWeights(file string, b *weightsBlock) *config.WeightsSource {
	path := b.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(file), path)
	}
	return &config.WeightsSource{Path: path}
}

func translateReport(b *reportBlock) (*config.Report, error) {
	report := &config.Report{}
	if b.All != nil {
		report.All = *b.All
	}
	if b.SocketIO == nil {
		return report, nil
	}

	sio := &config.SocketIO{
		URL:                b.SocketIO.URL,
		Namespace:          b.SocketIO.Namespace,
		Event:              b.SocketIO.Event,
		AckEvent:           b.SocketIO.AckEvent,
		InsecureSkipVerify: b.SocketIO.InsecureSkipVerify,
	}
	if b.SocketIO.Timeout != "" {
		timeout, err := time.ParseDuration(b.SocketIO.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse socketio timeout: %w", err)
		}
		sio.Timeout = timeout
	}
	report.SocketIO = sio
	return report, nil
}

func translateNeuron(ctx context.Context, b *neuronBlock, evalCtx *hcl.EvalContext) (*config.Neuron, error) {
	layer, err := evalInt(b.Layer, evalCtx, "layer")
	if err != nil {
		return nil, fmt.Errorf("neuron block: %w", err)
	}
	index, err := evalInt(b.Index, evalCtx, "index")
	if err != nil {
		return nil, fmt.Errorf("neuron block: %w", err)
	}
	neuron := &config.Neuron{Layer: layer, Index: index}

	if isExprDefined(ctx, b.Input, "input") {
		in, err := evalFloat(b.Input, evalCtx, "input")
		if err != nil {
			return nil, fmt.Errorf("neuron %d/%d: %w", layer, index, err)
		}
		neuron.Input = &in
	}

	neuron.Weights, err = evalFloats(b.Weights, evalCtx, "weights")
	if err != nil {
		return nil, fmt.Errorf("neuron %d/%d: %w", layer, index, err)
	}
	return neuron, nil
}
