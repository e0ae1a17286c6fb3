package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/mvexel/osm-fourmore/internal/category"
	"github.com/mvexel/osm-fourmore/internal/config"
	"github.com/mvexel/osm-fourmore/internal/geom"
	"github.com/mvexel/osm-fourmore/internal/logger"
	"github.com/mvexel/osm-fourmore/internal/nodeindex"
	"github.com/mvexel/osm-fourmore/internal/poi"
)

// Producer streams classified POIs out of a PBF extract in fixed-size
// batches. It reads the file twice: pass 1 builds the node coordinate
// index, pass 2 walks nodes and ways through classification and
// geometry reduction. Classification runs on a single goroutine so a
// batch's element order matches file order.
//
// A Producer is single-use. After Next returns io.EOF it stays
// exhausted; build a new one to re-read the extract.
type Producer struct {
	cfg   *config.Config
	rules *category.RuleSet

	file          *os.File
	scanner       *osmpbf.Scanner
	nodeIndex     *nodeindex.Index
	nodeIndexPath string

	done bool

	stats ProducerStats
}

// NewProducer opens the extract and builds the node index (pass 1).
// The returned Producer is ready for Next calls; Close releases the
// index and removes its backing file.
func NewProducer(ctx context.Context, cfg *config.Config, rules *category.RuleSet) (*Producer, error) {
	log := logger.Get()

	if err := os.MkdirAll(cfg.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	f, err := os.Open(cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open extract: %w", err)
	}

	p := &Producer{
		cfg:           cfg,
		rules:         rules,
		file:          f,
		nodeIndexPath: filepath.Join(cfg.WorkDir, "node_index.bin"),
	}

	log.Info("Pass 1: Building node coordinate index")
	start := time.Now()
	nodeCount, err := p.buildNodeIndex(ctx)
	if err != nil {
		f.Close()
		return nil, err
	}
	log.Info("Pass 1 complete",
		zap.Int64("nodes", nodeCount),
		zap.Duration("duration", time.Since(start).Round(time.Second)))

	if _, err := f.Seek(0, 0); err != nil {
		p.Close()
		return nil, err
	}

	// The scanner decodes blocks in parallel; classification below
	// stays on the caller's goroutine
	p.scanner = osmpbf.New(ctx, f, runtime.NumCPU())
	return p, nil
}

// Close releases the scanner, the node index, and its backing file
func (p *Producer) Close() error {
	if p.scanner != nil {
		p.scanner.Close()
		p.scanner = nil
	}
	if p.nodeIndex != nil {
		p.nodeIndex.Close()
		p.nodeIndex = nil
	}
	os.Remove(p.nodeIndexPath)
	if p.file != nil {
		err := p.file.Close()
		p.file = nil
		return err
	}
	return nil
}

// Stats returns the producer's running counters
func (p *Producer) Stats() ProducerStats {
	return p.stats
}

// buildNodeIndex performs pass 1: every node's coordinate into the
// mmap index, stopping at the first way since PBF files order nodes
// before ways
func (p *Producer) buildNodeIndex(ctx context.Context) (int64, error) {
	idx, err := nodeindex.Create(p.nodeIndexPath)
	if err != nil {
		return 0, err
	}
	p.nodeIndex = idx

	scanner := osmpbf.New(ctx, p.file, runtime.NumCPU())
	defer scanner.Close()

	var count int64
	for scanner.Scan() {
		switch n := scanner.Object().(type) {
		case *osm.Node:
			idx.Put(int64(n.ID), n.Lat, n.Lon)
			count++
		case *osm.Way:
			return count, nil
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return 0, fmt.Errorf("failed to decode extract: %w", err)
	}

	return count, nil
}

// Next returns the next batch, full-sized except possibly the last.
// It returns io.EOF once the extract is exhausted and any non-EOF
// error is fatal to the run.
func (p *Producer) Next(ctx context.Context) ([]poi.POI, error) {
	if p.done {
		return nil, io.EOF
	}

	batch := make([]poi.POI, 0, p.cfg.BatchSize)

	for p.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch o := p.scanner.Object().(type) {
		case *osm.Node:
			p.stats.Nodes++
			record, ok := p.processNode(o)
			if !ok {
				p.stats.Dropped++
				continue
			}
			batch = append(batch, record)
		case *osm.Way:
			p.stats.Ways++
			record, ok := p.processWay(o)
			if !ok {
				p.stats.Dropped++
				continue
			}
			batch = append(batch, record)
		case *osm.Relation:
			p.stats.Relations++
			continue
		default:
			continue
		}

		if len(batch) >= p.cfg.BatchSize {
			p.stats.Emitted += int64(len(batch))
			return batch, nil
		}
	}

	if err := p.scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode extract: %w", err)
	}

	p.done = true
	if len(batch) > 0 {
		p.stats.Emitted += int64(len(batch))
		return batch, nil
	}
	return nil, io.EOF
}

// classify runs the shared filter chain: cheap key scan before the
// tag map is built, then name check, then the rule set. Returns
// ok=false when the element is not a POI.
func (p *Producer) classify(tags osm.Tags) (map[string]string, string, category.Result, bool) {
	if len(tags) == 0 {
		return nil, "", category.Result{}, false
	}

	interesting := false
	for _, tag := range tags {
		if p.rules.HasKey(tag.Key) {
			interesting = true
			break
		}
	}
	if !interesting {
		return nil, "", category.Result{}, false
	}

	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[tag.Key] = tag.Value
	}

	name, ok := m["name"]
	if !ok || name == "" {
		return nil, "", category.Result{}, false
	}

	result, ok := p.rules.Classify(m)
	if !ok {
		return nil, "", category.Result{}, false
	}

	return m, name, result, true
}

func (p *Producer) processNode(n *osm.Node) (poi.POI, bool) {
	tags, name, result, ok := p.classify(n.Tags)
	if !ok {
		return poi.POI{}, false
	}

	return poi.POI{
		OsmID:    int64(n.ID),
		OsmType:  poi.TypeNode,
		Name:     name,
		Class:    result.Class,
		Subclass: result.Subclass,
		Lat:      n.Lat,
		Lon:      n.Lon,
		Tags:     tags,
		Fields:   poi.ExtractFields(tags),
	}, true
}

func (p *Producer) processWay(w *osm.Way) (poi.POI, bool) {
	tags, name, result, ok := p.classify(w.Tags)
	if !ok {
		return poi.POI{}, false
	}

	vertices := make([]geom.Vertex, len(w.Nodes))
	for i, ref := range w.Nodes {
		lat, lon, found := p.nodeIndex.Get(int64(ref.ID))
		vertices[i] = geom.Vertex{Lat: lat, Lon: lon, Valid: found}
	}

	closed := len(w.Nodes) >= 2 && w.Nodes[0].ID == w.Nodes[len(w.Nodes)-1].ID

	point, err := geom.ReduceWay(vertices, closed, tags)
	if err != nil {
		// Boundary clipping leaves ways referencing nodes outside the
		// extract; dropping them is expected, not an error
		logger.Get().Debug("Dropping way",
			zap.Int64("way_id", int64(w.ID)),
			zap.Error(err))
		return poi.POI{}, false
	}

	return poi.POI{
		OsmID:    int64(w.ID),
		OsmType:  poi.TypeWay,
		Name:     name,
		Class:    result.Class,
		Subclass: result.Subclass,
		Lat:      point.Lat,
		Lon:      point.Lon,
		Tags:     tags,
		Fields:   poi.ExtractFields(tags),
	}, true
}
