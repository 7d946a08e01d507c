package hypergraph

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/toolgraph/shgat/kernel"
)

// Store owns every ToolNode and CapabilityNode registered with an engine,
// plus the dense incidence matrix A derived from their transitive
// membership. It is safe for one writer or many concurrent readers, never
// both at once.
type Store struct {
	mu sync.RWMutex

	embeddingDim int

	tools map[string]*ToolNode
	caps  map[string]*CapabilityNode

	toolOrder []string // insertion order, defines row indices
	capOrder  []string // insertion order, defines column indices

	toolIndex map[string]int
	capIndex  map[string]int

	incidence *kernel.Dense // numTools x numCaps, entries in {0,1}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		tools:     make(map[string]*ToolNode),
		caps:      make(map[string]*CapabilityNode),
		toolIndex: make(map[string]int),
		capIndex:  make(map[string]int),
	}
}

// checkEmbeddingDim validates (and, for the first node registered, adopts)
// the Store-wide embedding dimension. A mismatch is a fatal programming
// error.
func (s *Store) checkEmbeddingDim(op string, embedding []float32) {
	if s.embeddingDim == 0 {
		s.embeddingDim = len(embedding)
		return
	}
	if len(embedding) != s.embeddingDim {
		panic(fmt.Errorf("hypergraph.%s: embedding has dim %d, store expects %d: %w",
			op, len(embedding), s.embeddingDim, ErrDimensionMismatch))
	}
}

// RegisterTool inserts (or replaces) a tool and rebuilds indices.
func (s *Store) RegisterTool(t ToolNode) error {
	if t.ID == "" {
		return fmt.Errorf("hypergraph.RegisterTool: %w", ErrEmptyID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkEmbeddingDim("RegisterTool", t.Embedding)
	if _, exists := s.tools[t.ID]; !exists {
		s.toolOrder = append(s.toolOrder, t.ID)
	}
	node := t
	s.tools[t.ID] = &node
	s.rebuildIndicesLocked()
	return nil
}

// RegisterCapability inserts (or replaces) a capability and rebuilds indices.
func (s *Store) RegisterCapability(c CapabilityNode) error {
	if c.ID == "" {
		return fmt.Errorf("hypergraph.RegisterCapability: %w", ErrEmptyID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkEmbeddingDim("RegisterCapability", c.Embedding)
	if _, exists := s.caps[c.ID]; !exists {
		s.capOrder = append(s.capOrder, c.ID)
	}
	node := c
	s.caps[c.ID] = &node
	s.rebuildIndicesLocked()
	return nil
}

// BuildFromData clears the Store and bulk-inserts tools and capabilities in
// the given order, then rebuilds indices once.
func (s *Store) BuildFromData(tools []ToolNode, caps []CapabilityNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = make(map[string]*ToolNode, len(tools))
	s.caps = make(map[string]*CapabilityNode, len(caps))
	s.toolOrder = s.toolOrder[:0]
	s.capOrder = s.capOrder[:0]
	s.embeddingDim = 0

	for _, t := range tools {
		if t.ID == "" {
			return fmt.Errorf("hypergraph.BuildFromData: %w", ErrEmptyID)
		}
		s.checkEmbeddingDim("BuildFromData", t.Embedding)
		node := t
		s.tools[t.ID] = &node
		s.toolOrder = append(s.toolOrder, t.ID)
	}
	for _, c := range caps {
		if c.ID == "" {
			return fmt.Errorf("hypergraph.BuildFromData: %w", ErrEmptyID)
		}
		s.checkEmbeddingDim("BuildFromData", c.Embedding)
		node := c
		s.caps[c.ID] = &node
		s.capOrder = append(s.capOrder, c.ID)
	}
	s.rebuildIndicesLocked()
	return nil
}

// rebuildIndicesLocked assigns 0-based row/column indices in insertion order
// and recomputes the dense incidence matrix from each capability's
// transitive tool set. Caller must hold s.mu for writing. Idempotent: running
// it twice in a row with no intervening mutation produces the same result.
func (s *Store) rebuildIndicesLocked() {
	s.toolIndex = make(map[string]int, len(s.toolOrder))
	for i, id := range s.toolOrder {
		s.toolIndex[id] = i
	}
	s.capIndex = make(map[string]int, len(s.capOrder))
	for j, id := range s.capOrder {
		s.capIndex[id] = j
	}

	if len(s.toolOrder) == 0 || len(s.capOrder) == 0 {
		s.incidence = nil
		return
	}

	a := kernel.NewDense(len(s.toolOrder), len(s.capOrder))
	for j, capID := range s.capOrder {
		for toolID := range s.collectTransitiveTools(capID) {
			if ti, ok := s.toolIndex[toolID]; ok {
				a.Set(ti, j, 1)
			}
		}
	}
	s.incidence = a
}

// collectTransitiveTools performs a DFS from capID over Children, unioning
// ToolsUsed at every visited capability. A capability revisited within the
// same traversal (a containment cycle) stops descent there instead of
// recursing again.
func (s *Store) collectTransitiveTools(capID string) map[string]struct{} {
	visited := make(map[string]struct{})
	result := make(map[string]struct{})

	var visit func(id string)
	visit = func(id string) {
		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}

		cap, ok := s.caps[id]
		if !ok {
			return
		}
		for _, toolID := range cap.ToolsUsed {
			result[toolID] = struct{}{}
		}
		for _, child := range cap.Children {
			visit(child)
		}
	}
	visit(capID)
	return result
}

// TransitiveTools returns the transitive tool-id set of capID, exported for
// callers (and tests) that want to check the incidence-transitivity
// invariant directly.
func (s *Store) TransitiveTools(capID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.caps[capID]; !ok {
		return nil, fmt.Errorf("hypergraph.TransitiveTools(%q): %w", capID, ErrUnknownCapability)
	}
	return s.collectTransitiveTools(capID), nil
}

// UpdateToolFeatures shallow-merges patch into tool id's features. Unknown
// ids are recoverable: logged at debug level and otherwise ignored.
func (s *Store) UpdateToolFeatures(id string, patch ToolFeaturesPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tools[id]
	if !ok {
		logrus.Debugf("[hypergraph] UpdateToolFeatures: unknown tool %q, skipping", id)
		return
	}
	var current ToolFeatures
	if t.Features != nil {
		current = *t.Features
	}
	merged := patch.Apply(current)
	t.Features = &merged
}

// UpdateHypergraphFeatures shallow-merges patch into capability id's
// features. Unknown ids are recoverable: logged at debug level and
// otherwise ignored.
func (s *Store) UpdateHypergraphFeatures(id string, patch HypergraphFeaturesPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caps[id]
	if !ok {
		logrus.Debugf("[hypergraph] UpdateHypergraphFeatures: unknown capability %q, skipping", id)
		return
	}
	var current HypergraphFeatures
	if c.Features != nil {
		current = *c.Features
	}
	merged := patch.Apply(current)
	c.Features = &merged
}

// Tool returns a copy of the named tool, if registered.
func (s *Store) Tool(id string) (ToolNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[id]
	if !ok {
		return ToolNode{}, false
	}
	return *t, true
}

// Capability returns a copy of the named capability, if registered.
func (s *Store) Capability(id string) (CapabilityNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.caps[id]
	if !ok {
		return CapabilityNode{}, false
	}
	return *c, true
}

// ToolIDs returns tool IDs in insertion (row-index) order.
func (s *Store) ToolIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.toolOrder))
	copy(out, s.toolOrder)
	return out
}

// CapabilityIDs returns capability IDs in insertion (column-index) order.
func (s *Store) CapabilityIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.capOrder))
	copy(out, s.capOrder)
	return out
}

// ToolIndex returns the row index of toolID, if registered.
func (s *Store) ToolIndex(toolID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.toolIndex[toolID]
	return i, ok
}

// CapabilityIndex returns the column index of capID, if registered.
func (s *Store) CapabilityIndex(capID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.capIndex[capID]
	return j, ok
}

// EmbeddingDim returns the Store-wide embedding dimension (0 if no node has
// been registered yet).
func (s *Store) EmbeddingDim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingDim
}

// Incidence returns the current dense incidence matrix (nil if the Store
// has no tools or no capabilities yet).
func (s *Store) Incidence() *kernel.Dense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.incidence
}

// Incident reports whether tool t participates in capability c (both given
// by external id), via the incidence matrix.
func (s *Store) Incident(toolID, capID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.incidence == nil {
		return false
	}
	ti, ok := s.toolIndex[toolID]
	if !ok {
		return false
	}
	cj, ok := s.capIndex[capID]
	if !ok {
		return false
	}
	return s.incidence.At(ti, cj) != 0
}

// IncidentTools returns the row indices of tools incident to capability
// column j, in ascending (insertion) order.
func (s *Store) IncidentTools(j int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.incidence == nil {
		return nil
	}
	var out []int
	for i := 0; i < s.incidence.Rows(); i++ {
		if s.incidence.At(i, j) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// IncidentCapabilities returns the column indices of capabilities incident
// to tool row i, in ascending (insertion) order.
func (s *Store) IncidentCapabilities(i int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.incidence == nil {
		return nil
	}
	var out []int
	for j := 0; j < s.incidence.Cols(); j++ {
		if s.incidence.At(i, j) != 0 {
			out = append(out, j)
		}
	}
	return out
}

// Stats is a read-only structural summary of the Store.
type Stats struct {
	NumTools          int
	NumCapabilities   int
	IncidenceNonZeros int
	IncidenceDensity  float64 // nonzeros / (numTools*numCapabilities), 0 if either is 0
}

// Stats computes an O(V·E) structural snapshot of the Store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{NumTools: len(s.toolOrder), NumCapabilities: len(s.capOrder)}
	if s.incidence == nil {
		return st
	}
	row := make([]float64, s.incidence.Cols())
	var total float64
	for i := 0; i < s.incidence.Rows(); i++ {
		for j, v := range s.incidence.Row(i) {
			row[j] = float64(v)
		}
		total += floats.Sum(row)
	}
	st.IncidenceNonZeros = int(total)
	if st.NumTools > 0 && st.NumCapabilities > 0 {
		st.IncidenceDensity = total / float64(st.NumTools*st.NumCapabilities)
	}
	return st
}
