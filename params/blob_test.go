package params

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobYAMLRoundTrip(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, rand.New(rand.NewSource(11)))
	blob := s.Export()

	data, err := blob.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "fusion_weights")

	parsed, err := BlobFromYAML(data)
	require.NoError(t, err)

	fresh := Import(&Store{}, parsed)
	assert.Equal(t, s.Config, fresh.Config)
	assert.Equal(t, s.FusionWeights, fresh.FusionWeights)
	assert.Equal(t, s.Layers[0].Heads[0].Wv.At(0, 0), fresh.Layers[0].Heads[0].Wv.At(0, 0))
}

func TestBlobFromYAMLRejectsMalformedDocument(t *testing.T) {
	_, err := BlobFromYAML([]byte("not: [valid"))
	assert.Error(t, err)
}
