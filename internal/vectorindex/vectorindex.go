// Package vectorindex implements Meridian's approximate nearest-neighbor
// core: a persistent set of (doc_id, vector) pairs searchable under a
// configurable similarity metric, backed by a pure-Go HNSW graph so the
// binary never needs CGO.
package vectorindex

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	meridianerrors "github.com/meridian-mem/meridian/internal/errors"
)

// rebuildSeed fixes the HNSW level-generation RNG so rebuilds of the same
// raw vector set produce the same graph shape, per the reproducibility
// requirement on the rebuild policy.
const rebuildSeed = 0xC0FFEE

// Config configures an Index. Dimensions and Metric are fixed for the
// lifetime of the index; M/EfConstruction/EfSearch tune the HNSW build.
type Config struct {
	Dimensions       int
	Metric           Metric
	M                int
	EfConstruction   int
	EfSearch         int
	RebuildThreshold int
}

// DefaultConfig returns sane HNSW build defaults for the given dimension.
func DefaultConfig(dimensions int) Config {
	return Config{
		Dimensions:       dimensions,
		Metric:           MetricCosine,
		M:                16,
		EfConstruction:   128,
		EfSearch:         20,
		RebuildThreshold: 1000,
	}
}

// Result is one hit from Search, ordered by descending Score regardless
// of the underlying metric.
type Result struct {
	DocID  string
	Score  float32
	Vector []float32
}

// Stats reports the live shape of the index.
type Stats struct {
	TotalVectors    int
	Dimension       int
	Metric          Metric
	HNSWM           int
	HNSWEfConstruct int
}

// Index is an ANN core over (doc_id, vector) pairs. Zero value is not
// usable; construct with New.
type Index struct {
	mu     sync.RWMutex
	config Config

	graph *hnsw.Graph[uint64]

	rawVectors map[uint64][]float32
	idMap      map[string]uint64
	keyMap     map[uint64]string
	nextKey    uint64

	dirty             bool
	insertsSinceBuild int
}

// persistedState is the gob-encoded sidecar written alongside the graph
// blob: config plus the raw vector store, so a reload can rebuild the
// graph from scratch when the exported blob doesn't match (or wasn't
// written, e.g. a brute-force-only index).
type persistedState struct {
	Config     Config
	RawVectors map[uint64][]float32
	IDMap      map[string]uint64
	NextKey    uint64
}

// New constructs an empty Index under cfg. Zero-valued M/EfConstruction/
// EfSearch/RebuildThreshold fall back to DefaultConfig's values.
func New(cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vectorindex: dimensions must be positive, got %d", cfg.Dimensions)
	}
	defaults := DefaultConfig(cfg.Dimensions)
	if cfg.Metric == "" {
		cfg.Metric = defaults.Metric
	}
	if cfg.M == 0 {
		cfg.M = defaults.M
	}
	if cfg.EfConstruction == 0 {
		cfg.EfConstruction = defaults.EfConstruction
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = defaults.EfSearch
	}
	if cfg.RebuildThreshold == 0 {
		cfg.RebuildThreshold = defaults.RebuildThreshold
	}

	return &Index{
		config:     cfg,
		rawVectors: make(map[uint64][]float32),
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
	}, nil
}

// Insert upserts a single vector under docID.
func (idx *Index) Insert(docID string, vec []float32) error {
	if len(vec) != idx.config.Dimensions {
		return meridianerrors.DimensionMismatch(idx.config.Dimensions, len(vec))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.insertLocked(docID, vec)
	return nil
}

// InsertBatch validates every vector's dimension before upserting any of
// them, so a single malformed item in the batch leaves the index
// untouched.
func (idx *Index) InsertBatch(docIDs []string, vecs [][]float32) error {
	if len(docIDs) != len(vecs) {
		return fmt.Errorf("vectorindex: ids and vectors length mismatch: %d vs %d", len(docIDs), len(vecs))
	}
	for _, v := range vecs {
		if len(v) != idx.config.Dimensions {
			return meridianerrors.DimensionMismatch(idx.config.Dimensions, len(v))
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, id := range docIDs {
		idx.insertLocked(id, vecs[i])
	}
	return nil
}

func (idx *Index) insertLocked(docID string, vec []float32) {
	if existingKey, exists := idx.idMap[docID]; exists {
		delete(idx.keyMap, existingKey)
		delete(idx.rawVectors, existingKey)
		delete(idx.idMap, docID)
	}

	key := idx.nextKey
	idx.nextKey++

	stored := make([]float32, len(vec))
	copy(stored, vec)

	idx.rawVectors[key] = stored
	idx.idMap[docID] = key
	idx.keyMap[key] = docID

	idx.dirty = true
	idx.insertsSinceBuild++
}

// Remove deletes the entry for docID. Removing an unknown id is reported.
func (idx *Index) Remove(docID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key, ok := idx.idMap[docID]
	if !ok {
		return meridianerrors.NotFound(meridianerrors.ErrCodeDocumentNotFound, "vector", docID)
	}

	delete(idx.idMap, docID)
	delete(idx.keyMap, key)
	delete(idx.rawVectors, key)

	idx.dirty = true
	idx.insertsSinceBuild++
	return nil
}

// Len returns the number of live vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.idMap)
}

// IsEmpty reports whether the index holds no vectors.
func (idx *Index) IsEmpty() bool {
	return idx.Len() == 0
}

// Clear removes every vector and drops the built graph.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.graph = nil
	idx.rawVectors = make(map[uint64][]float32)
	idx.idMap = make(map[string]uint64)
	idx.keyMap = make(map[uint64]string)
	idx.nextKey = 0
	idx.dirty = false
	idx.insertsSinceBuild = 0
}

// Search returns up to k nearest neighbors to query, ordered by
// descending score. Before searching, the graph is rebuilt if it is
// dirty or churn has crossed RebuildThreshold. An empty index (or one
// whose graph has never been built) falls back to brute-force scan.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != idx.config.Dimensions {
		return nil, meridianerrors.DimensionMismatch(idx.config.Dimensions, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	idx.ensureFresh()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil || idx.graph.Len() == 0 {
		return idx.bruteForceLocked(query, k), nil
	}
	return idx.graphSearchLocked(query, k), nil
}

func (idx *Index) ensureFresh() {
	idx.mu.RLock()
	needsRebuild := idx.dirty || idx.insertsSinceBuild >= idx.config.RebuildThreshold
	idx.mu.RUnlock()
	if !needsRebuild {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !(idx.dirty || idx.insertsSinceBuild >= idx.config.RebuildThreshold) {
		return
	}
	idx.rebuildLocked()
}

func (idx *Index) rebuildLocked() {
	if len(idx.rawVectors) == 0 {
		idx.graph = nil
		idx.dirty = false
		idx.insertsSinceBuild = 0
		return
	}

	graph := hnsw.NewGraph[uint64]()
	graph.M = idx.config.M
	graph.EfSearch = idx.config.EfSearch
	graph.Ml = 0.25
	graph.Distance = distanceFuncFor(idx.config.Metric)
	graph.Rng = rand.New(rand.NewSource(rebuildSeed))

	keys := make([]uint64, 0, len(idx.rawVectors))
	for key := range idx.rawVectors {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		vec := idx.buildVectorLocked(key)
		graph.Add(hnsw.MakeNode(key, vec))
	}

	idx.graph = graph
	idx.dirty = false
	idx.insertsSinceBuild = 0
}

// buildVectorLocked returns the vector as the graph wants to see it:
// cosine distance assumes pre-normalized inputs, so vectors are normalized
// before being added to the graph.
func (idx *Index) buildVectorLocked(key uint64) []float32 {
	raw := idx.rawVectors[key]
	if idx.config.Metric != MetricCosine {
		return raw
	}
	normalized := make([]float32, len(raw))
	copy(normalized, raw)
	normalizeInPlace(normalized)
	return normalized
}

func (idx *Index) graphSearchLocked(query []float32, k int) []Result {
	q := query
	if idx.config.Metric == MetricCosine {
		q = make([]float32, len(query))
		copy(q, query)
		normalizeInPlace(q)
	}

	nodes := idx.graph.Search(q, k)
	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		docID, ok := idx.keyMap[node.Key]
		if !ok {
			continue
		}
		distance := idx.graph.Distance(q, node.Value)
		results = append(results, Result{
			DocID:  docID,
			Score:  scoreFromDistance(distance, idx.config.Metric),
			Vector: idx.rawVectors[node.Key],
		})
	}
	return results
}

func (idx *Index) bruteForceLocked(query []float32, k int) []Result {
	results := make([]Result, 0, len(idx.idMap))
	for docID, key := range idx.idMap {
		vec := idx.rawVectors[key]
		results = append(results, Result{
			DocID:  docID,
			Score:  bruteForceScore(query, vec, idx.config.Metric),
			Vector: vec,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func bruteForceScore(query, vec []float32, m Metric) float32 {
	switch m {
	case MetricEuclidean:
		var sumSquares float64
		for i := range query {
			d := float64(query[i] - vec[i])
			sumSquares += d * d
		}
		return -float32(math.Sqrt(sumSquares))
	case MetricDotProduct:
		return dotProduct(query, vec)
	default:
		qn := make([]float32, len(query))
		vn := make([]float32, len(vec))
		copy(qn, query)
		copy(vn, vec)
		normalizeInPlace(qn)
		normalizeInPlace(vn)
		return dotProduct(qn, vn)
	}
}

// Stats reports the current shape of the index.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return Stats{
		TotalVectors:    len(idx.idMap),
		Dimension:       idx.config.Dimensions,
		Metric:          idx.config.Metric,
		HNSWM:           idx.config.M,
		HNSWEfConstruct: idx.config.EfConstruction,
	}
}

// Save persists the full index state to path: the exported HNSW graph
// blob (if one has been built) plus a gob-encoded metadata sidecar,
// written atomically via a temp-file-then-rename.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return meridianerrors.Storage("failed to create index directory", err)
	}

	if idx.graph != nil && idx.graph.Len() > 0 {
		if err := saveGraphBlob(path, idx.graph); err != nil {
			return err
		}
	} else {
		_ = os.Remove(path)
	}

	return saveMetadata(path+".meta", persistedState{
		Config:     idx.config,
		RawVectors: idx.rawVectors,
		IDMap:      idx.idMap,
		NextKey:    idx.nextKey,
	})
}

func saveGraphBlob(path string, graph *hnsw.Graph[uint64]) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return meridianerrors.Storage("failed to create index file", err)
	}

	if err := graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return meridianerrors.Storage("failed to export graph", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return meridianerrors.Storage("failed to close index file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return meridianerrors.Storage("failed to rename index file", err)
	}
	return nil
}

func saveMetadata(path string, meta persistedState) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return meridianerrors.Storage("create temp metadata file", err)
	}

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(meta); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return meridianerrors.Storage("encode metadata", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return meridianerrors.Storage("close metadata file", err)
	}
	return os.Rename(tmpPath, path)
}

// Load restores index state from path written by Save. On any failure
// the in-memory index is left untouched.
func (idx *Index) Load(path string) error {
	meta, err := loadMetadata(path + ".meta")
	if err != nil {
		return meridianerrors.Parse(meridianerrors.ErrCodeIndexLoadFailed, "failed to load index metadata", err)
	}

	var graph *hnsw.Graph[uint64]
	if _, statErr := os.Stat(path); statErr == nil {
		graph, err = loadGraphBlob(path, meta.Config)
		if err != nil {
			return meridianerrors.Parse(meridianerrors.ErrCodeIndexLoadFailed, "failed to load index graph", err)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.config = meta.Config
	idx.rawVectors = meta.RawVectors
	idx.idMap = meta.IDMap
	idx.nextKey = meta.NextKey
	idx.keyMap = make(map[uint64]string, len(idx.idMap))
	for id, key := range idx.idMap {
		idx.keyMap[key] = id
	}
	idx.graph = graph
	idx.dirty = graph == nil && len(idx.rawVectors) > 0
	idx.insertsSinceBuild = 0

	return nil
}

func loadMetadata(path string) (persistedState, error) {
	file, err := os.Open(path)
	if err != nil {
		return persistedState{}, fmt.Errorf("open metadata file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var meta persistedState
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return persistedState{}, fmt.Errorf("decode metadata: %w", err)
	}
	if meta.Config.Dimensions <= 0 {
		return persistedState{}, fmt.Errorf("corrupt metadata: non-positive dimension %d", meta.Config.Dimensions)
	}
	return meta, nil
}

func loadGraphBlob(path string, cfg Config) (*hnsw.Graph[uint64], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer func() { _ = file.Close() }()

	graph := hnsw.NewGraph[uint64]()
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25
	graph.Distance = distanceFuncFor(cfg.Metric)

	reader := bufio.NewReader(file)
	if err := graph.Import(reader); err != nil {
		return nil, fmt.Errorf("import graph: %w", err)
	}
	return graph, nil
}
