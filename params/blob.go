package params

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/toolgraph/shgat/kernel"
)

// HeadBlob is the serializable form of HeadParams: dense matrices become
// nested float32 slices so the whole Blob can round-trip through
// gopkg.in/yaml.v3 or encoding/json.
type HeadBlob struct {
	Wv  [][]float32 `yaml:"wv" json:"wv"`
	We  [][]float32 `yaml:"we" json:"we"`
	We2 [][]float32 `yaml:"we2" json:"we2"`
	Wv2 [][]float32 `yaml:"wv2" json:"wv2"`
	Ave []float32   `yaml:"ave" json:"ave"`
	Aev []float32   `yaml:"aev" json:"aev"`
}

// LayerBlob is the serializable form of LayerParams.
type LayerBlob struct {
	Heads []HeadBlob `yaml:"heads" json:"heads"`
}

// LegacyHeadBlob is the serializable form of LegacyHeadParams.
type LegacyHeadBlob struct {
	Wq [][]float32 `yaml:"wq" json:"wq"`
	Wk [][]float32 `yaml:"wk" json:"wk"`
	Wv [][]float32 `yaml:"wv" json:"wv"`
	A  []float32   `yaml:"a" json:"a"`
}

// Blob is the stable parameter blob format: config, layer_params,
// head_params (legacy, optional on import), fusion_weights, and w_intent.
type Blob struct {
	Config        Config           `yaml:"config" json:"config"`
	LayerParams   []LayerBlob      `yaml:"layer_params" json:"layer_params"`
	HeadParams    []LegacyHeadBlob `yaml:"head_params,omitempty" json:"head_params,omitempty"`
	FusionWeights []float32        `yaml:"fusion_weights" json:"fusion_weights"`
	WIntent       [][]float32      `yaml:"w_intent" json:"w_intent"`
}

func denseToRows(d *kernel.Dense) [][]float32 {
	out := make([][]float32, d.Rows())
	for i := range out {
		row := make([]float32, d.Cols())
		copy(row, d.Row(i))
		out[i] = row
	}
	return out
}

func rowsToDense(rows [][]float32) *kernel.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	d := kernel.NewDense(len(rows), len(rows[0]))
	for i, row := range rows {
		d.SetRow(i, row)
	}
	return d
}

// Export snapshots s into a self-describing Blob.
func (s *Store) Export() *Blob {
	b := &Blob{
		Config:        s.Config,
		FusionWeights: append([]float32(nil), s.FusionWeights...),
		WIntent:       denseToRows(s.WIntent),
	}

	b.LayerParams = make([]LayerBlob, len(s.Layers))
	for l, layer := range s.Layers {
		heads := make([]HeadBlob, len(layer.Heads))
		for h, hp := range layer.Heads {
			heads[h] = HeadBlob{
				Wv:  denseToRows(hp.Wv),
				We:  denseToRows(hp.We),
				We2: denseToRows(hp.We2),
				Wv2: denseToRows(hp.Wv2),
				Ave: append([]float32(nil), hp.Ave...),
				Aev: append([]float32(nil), hp.Aev...),
			}
		}
		b.LayerParams[l] = LayerBlob{Heads: heads}
	}

	b.HeadParams = make([]LegacyHeadBlob, len(s.LegacyHeadParams))
	for h, lp := range s.LegacyHeadParams {
		b.HeadParams[h] = LegacyHeadBlob{
			Wq: denseToRows(lp.Wq),
			Wk: denseToRows(lp.Wk),
			Wv: denseToRows(lp.Wv),
			A:  append([]float32(nil), lp.A...),
		}
	}
	return b
}

// Import replaces s's parameters with the contents of b. Any single field
// may be absent from b: an empty/nil LayerParams, FusionWeights, WIntent, or
// HeadParams leaves the corresponding existing value in s untouched, and the
// Config defaults to s's current Config when b.Config is the zero value.
// Import never requires a hypergraph to already be built.
func Import(s *Store, b *Blob) *Store {
	if s == nil {
		s = &Store{}
	}
	if b == nil {
		return s
	}

	if (b.Config != Config{}) {
		s.Config = b.Config
	}

	if len(b.LayerParams) > 0 {
		layers := make([]LayerParams, len(b.LayerParams))
		for l, lb := range b.LayerParams {
			heads := make([]HeadParams, len(lb.Heads))
			for h, hb := range lb.Heads {
				heads[h] = HeadParams{
					Wv:  rowsToDense(hb.Wv),
					We:  rowsToDense(hb.We),
					We2: rowsToDense(hb.We2),
					Wv2: rowsToDense(hb.Wv2),
					Ave: append([]float32(nil), hb.Ave...),
					Aev: append([]float32(nil), hb.Aev...),
				}
			}
			layers[l] = LayerParams{Heads: heads}
		}
		s.Layers = layers
	}

	if len(b.FusionWeights) > 0 {
		s.FusionWeights = append([]float32(nil), b.FusionWeights...)
	}

	if len(b.WIntent) > 0 {
		s.WIntent = rowsToDense(b.WIntent)
	}

	if len(b.HeadParams) > 0 {
		legacy := make([]LegacyHeadParams, len(b.HeadParams))
		for h, hb := range b.HeadParams {
			legacy[h] = LegacyHeadParams{
				Wq: rowsToDense(hb.Wq),
				Wk: rowsToDense(hb.Wk),
				Wv: rowsToDense(hb.Wv),
				A:  append([]float32(nil), hb.A...),
			}
		}
		s.LegacyHeadParams = legacy
	}

	return s
}

// ToYAML renders b in the stable on-disk parameter format.
func (b *Blob) ToYAML() ([]byte, error) {
	out, err := yaml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("params: marshal blob to yaml: %w", err)
	}
	return out, nil
}

// BlobFromYAML parses data produced by ToYAML (or any compatible document)
// back into a Blob.
func BlobFromYAML(data []byte) (*Blob, error) {
	var b Blob
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("params: unmarshal blob from yaml: %w", err)
	}
	return &b, nil
}
