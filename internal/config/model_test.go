package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		network Network
		wantErr bool
	}{
		{name: "minimal", network: Network{NeuronCount: 1, LayerCount: 1, NeuronsPerLayer: 1}},
		{name: "regular", network: Network{NeuronCount: 2, LayerCount: 7, NeuronsPerLayer: 8}},
		{name: "zero inputs", network: Network{NeuronCount: 0, LayerCount: 1, NeuronsPerLayer: 1}, wantErr: true},
		{name: "negative depth", network: Network{NeuronCount: 1, LayerCount: -1, NeuronsPerLayer: 1}, wantErr: true},
		{name: "zero width", network: Network{NeuronCount: 1, LayerCount: 1, NeuronsPerLayer: 0}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.network.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidNetwork)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNetwork_WidthAndIsLast(t *testing.T) {
	t.Parallel()
	n := Network{NeuronCount: 2, LayerCount: 3, NeuronsPerLayer: 4}

	assert.Equal(t, 2, n.Width(0), "input layer uses neuron_count")
	assert.Equal(t, 4, n.Width(1))
	assert.Equal(t, 4, n.Width(2))

	assert.False(t, n.IsLast(0))
	assert.False(t, n.IsLast(1))
	assert.True(t, n.IsLast(2))
}

func TestNetwork_Merge(t *testing.T) {
	t.Parallel()
	base := Network{NeuronCount: 2, LayerCount: 3, NeuronsPerLayer: 4}

	assert.Equal(t, base, base.Merge(Network{}), "zero override keeps everything")
	assert.Equal(t,
		Network{NeuronCount: 2, LayerCount: 9, NeuronsPerLayer: 4},
		base.Merge(Network{LayerCount: 9, NeuronsPerLayer: -1}),
	)
	assert.Equal(t,
		Network{NeuronCount: 1, LayerCount: 1, NeuronsPerLayer: 1},
		Network{}.Merge(Network{NeuronCount: 1, LayerCount: 1, NeuronsPerLayer: 1}),
	)
}
