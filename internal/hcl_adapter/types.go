package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Network *networkBlock  `hcl:"network,block"`
	Weights *weightsBlock  `hcl:"weights,block"`
	Report  *reportBlock   `hcl:"report,block"`
	Neurons []*neuronBlock `hcl:"neuron,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

type networkBlock struct {
	NeuronCount     int `hcl:"neuron_count"`
	LayerCount      int `hcl:"layer_count"`
	NeuronsPerLayer int `hcl:"neurons_per_layer"`
}

type weightsBlock struct {
	Path string `hcl:"path"`
}

// neuronBlock keeps its attributes as expressions; they are evaluated once
// every file has been read and the network is known.
type neuronBlock struct {
	Layer   hcl.Expression `hcl:"layer"`
	Index   hcl.Expression `hcl:"index"`
	Input   hcl.Expression `hcl:"input,optional"`
	Weights hcl.Expression `hcl:"weights"`
}

type reportBlock struct {
	All      *bool          `hcl:"all,optional"`
	SocketIO *socketIOBlock `hcl:"socketio,block"`
}

type socketIOBlock struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Event              string `hcl:"event,optional"`
	AckEvent           string `hcl:"ack_event,optional"`
	Timeout            string `hcl:"timeout,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}
