package tools

import (
	"fmt"
	"sync"

	"github.com/usestring/replaygraph-mcp/internal/config"
	"github.com/usestring/replaygraph-mcp/internal/corpus"
	"github.com/usestring/replaygraph-mcp/internal/oracle"
	"github.com/usestring/replaygraph-mcp/internal/resolve"
)

// Deps contains all dependencies needed by tool handlers. The corpus and the
// pipeline built over it are replaced atomically when a new capture is
// loaded; completed runs are kept so their graphs can be re-read and
// exported after the fact.
type Deps struct {
	Config *config.Config
	Oracle oracle.Oracle

	mu       sync.RWMutex
	corpus   *corpus.Index
	pipeline *resolve.Pipeline
	runs     map[string]*resolve.Result
	runGoals map[string]string
	nextRun  int
}

// NewDeps creates tool dependencies around a config and an oracle.
func NewDeps(cfg *config.Config, orc oracle.Oracle) *Deps {
	return &Deps{
		Config:   cfg,
		Oracle:   orc,
		runs:     make(map[string]*resolve.Result),
		runGoals: make(map[string]string),
	}
}

// SetCorpus installs a freshly indexed capture and rebuilds the pipeline.
// Previously stored runs survive; they reference their own graphs.
func (d *Deps) SetCorpus(idx *corpus.Index) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.corpus = idx
	d.pipeline = resolve.New(idx, d.Oracle, d.Config)
}

// Corpus returns the current corpus index.
func (d *Deps) Corpus() (*corpus.Index, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.corpus == nil {
		return nil, ErrNoCorpus()
	}
	return d.corpus, nil
}

// Pipeline returns the resolution pipeline over the current corpus.
func (d *Deps) Pipeline() (*resolve.Pipeline, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pipeline == nil {
		return nil, ErrNoCorpus()
	}
	return d.pipeline, nil
}

// StoreRun records a finished run and returns its id.
func (d *Deps) StoreRun(goal string, res *resolve.Result) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextRun++
	id := fmt.Sprintf("run-%d", d.nextRun)
	d.runs[id] = res
	d.runGoals[id] = goal
	return id
}

// Run returns a stored run and the goal it resolved.
func (d *Deps) Run(id string) (*resolve.Result, string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res, ok := d.runs[id]
	return res, d.runGoals[id], ok
}
