package hypergraph

// ToolFeatures holds the structural/temporal signals computed upstream for a
// tool: page_rank, louvain_community, adamic_adar, cooccurrence, recency, and
// heat_diffusion. All float fields are normalized to [0,1] by the producer;
// LouvainCommunity is a non-negative community id.
type ToolFeatures struct {
	PageRank        float32
	LouvainCommunity int
	AdamicAdar      float32
	Cooccurrence    float32
	Recency         float32
	HeatDiffusion   float32
}

// ToolFeaturesPatch is a partial update to ToolFeatures: nil fields leave
// the existing value (or the zero value, for a tool with no prior features)
// untouched.
type ToolFeaturesPatch struct {
	PageRank         *float32
	LouvainCommunity *int
	AdamicAdar       *float32
	Cooccurrence     *float32
	Recency          *float32
	HeatDiffusion    *float32
}

// Apply merges p into f (f may be the zero value), returning the merged
// result. Fields absent from p retain f's current value.
func (p ToolFeaturesPatch) Apply(f ToolFeatures) ToolFeatures {
	if p.PageRank != nil {
		f.PageRank = *p.PageRank
	}
	if p.LouvainCommunity != nil {
		f.LouvainCommunity = *p.LouvainCommunity
	}
	if p.AdamicAdar != nil {
		f.AdamicAdar = *p.AdamicAdar
	}
	if p.Cooccurrence != nil {
		f.Cooccurrence = *p.Cooccurrence
	}
	if p.Recency != nil {
		f.Recency = *p.Recency
	}
	if p.HeatDiffusion != nil {
		f.HeatDiffusion = *p.HeatDiffusion
	}
	return f
}

// HypergraphFeatures holds the structural/temporal signals computed
// upstream for a capability: spectral_cluster, hypergraph_page_rank,
// cooccurrence, recency, adamic_adar, and heat_diffusion.
type HypergraphFeatures struct {
	SpectralCluster    int
	HypergraphPageRank float32
	Cooccurrence       float32
	Recency            float32
	AdamicAdar         float32
	HeatDiffusion      float32
}

// HypergraphFeaturesPatch is a partial update to HypergraphFeatures; see
// ToolFeaturesPatch for the merge semantics.
type HypergraphFeaturesPatch struct {
	SpectralCluster    *int
	HypergraphPageRank *float32
	Cooccurrence       *float32
	Recency            *float32
	AdamicAdar         *float32
	HeatDiffusion      *float32
}

// Apply merges p into f, returning the merged result.
func (p HypergraphFeaturesPatch) Apply(f HypergraphFeatures) HypergraphFeatures {
	if p.SpectralCluster != nil {
		f.SpectralCluster = *p.SpectralCluster
	}
	if p.HypergraphPageRank != nil {
		f.HypergraphPageRank = *p.HypergraphPageRank
	}
	if p.Cooccurrence != nil {
		f.Cooccurrence = *p.Cooccurrence
	}
	if p.Recency != nil {
		f.Recency = *p.Recency
	}
	if p.AdamicAdar != nil {
		f.AdamicAdar = *p.AdamicAdar
	}
	if p.HeatDiffusion != nil {
		f.HeatDiffusion = *p.HeatDiffusion
	}
	return f
}

// ToolNode is a vertex of the hypergraph: a stable external ID, a fixed-size
// embedding, and optional upstream-computed features.
type ToolNode struct {
	ID        string
	Embedding []float32
	Features  *ToolFeatures // nil means "no features yet"; scoring substitutes defaults
}

// CapabilityNode is a hyperedge of the hypergraph: a stable external ID, a
// fixed-size embedding, its direct tool membership, a reliability signal,
// and containment-DAG edges (Parents/Children) used to compute the
// transitive tool set.
type CapabilityNode struct {
	ID          string
	Embedding   []float32
	ToolsUsed   []string
	SuccessRate float32
	Parents     []string
	Children    []string
	Features    *HypergraphFeatures
}
