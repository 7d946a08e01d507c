// Package params owns every learnable tensor in the SHGAT engine: the
// per-layer, per-head attention weights, the shared fusion and
// intent-projection matrices, and the legacy head_params block kept only
// for wire-format compatibility.
//
// New allocates and randomly initializes a fresh parameter set from a
// Config. Store.Export and Import round-trip a Store through a plain Blob
// struct tagged for gopkg.in/yaml.v3 and encoding/json; Blob.ToYAML and
// BlobFromYAML convert a Blob to and from YAML bytes.
package params
