// Package pipeline owns a dataflow graph: module nodes, port connections,
// and the start/termination/error-propagation protocol that drives them.
package pipeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/signalgraph/internal/dataflow/dferrors"
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

// edge records one Output->Input connection so RemoveModule/Disconnect can
// find and undo it.
type edge struct {
	src, dst   string
	srcOut     int
	dstIn      int
	disconnect func()
}

// node wraps a registered module with the bookkeeping the Pipeline needs:
// its name, whether its Host declared it active, and completion tracking
// for the termination protocol.
type node struct {
	name   string
	mod    module.Module
	active bool

	mu       sync.Mutex
	done     bool
	seenData map[int]bool // input index -> ever received non-null data
	seenNull map[int]bool // input index -> received null
}

func newNode(name string, mod module.Module) *node {
	return &node{
		name:     name,
		mod:      mod,
		seenData: make(map[int]bool),
		seenNull: make(map[int]bool),
	}
}

// Pipeline exclusively owns every module and every port connection added
// to it, per spec §3 "Ownership".
type Pipeline struct {
	logger *slog.Logger

	mu      sync.Mutex
	nodes   map[string]*node
	edges   []*edge
	running bool

	wg        sync.WaitGroup
	errOnce   sync.Once
	firstErr  error
	completed chan struct{}
}

// New creates an empty Pipeline.
func New(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:    logger,
		nodes:     make(map[string]*node),
		completed: make(chan struct{}),
	}
}

// AddModule registers mod under name and retains it. The name must be
// unique within the pipeline.
func (p *Pipeline) AddModule(name string, mod module.Module) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.nodes[name]; exists {
		return fmt.Errorf("pipeline: module %q already added", name)
	}
	p.nodes[name] = newNode(name, mod)
	return nil
}

// SetActive marks a previously added module as active (source-like): the
// pipeline drives it continuously on its own goroutine once Start runs.
// This is the hook module.Host.Activate wires into.
func (p *Pipeline) SetActive(name string, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.nodes[name]; ok {
		n.active = active
	}
}

// Connect wires an output port of src to an input port of dst, performing
// metadata negotiation per port.Connect. forceAsync is accepted for
// interface parity with spec §4.5 but synchronous dispatch (the runtime
// default, see §4.3) is what this Pipeline implements; async hand-off
// across a goroutine boundary belongs to a module that queues internally.
func (p *Pipeline) Connect(src string, srcOutIdx int, dst string, dstInIdx int, forceAsync bool) error {
	p.mu.Lock()
	srcNode, ok := p.nodes[src]
	if !ok {
		p.mu.Unlock()
		return dferrors.NewConnectionError(src, dst, fmt.Errorf("module %q not found", src))
	}
	dstNode, ok := p.nodes[dst]
	if !ok {
		p.mu.Unlock()
		return dferrors.NewConnectionError(src, dst, fmt.Errorf("module %q not found", dst))
	}
	p.mu.Unlock()

	out := srcNode.mod.Output(srcOutIdx)
	in := dstNode.mod.Input(dstInIdx)
	if out == nil || in == nil {
		return dferrors.NewConnectionError(src, dst, fmt.Errorf("port index out of range"))
	}

	disconnect, err := port.Connect(out, in)
	if err != nil {
		return dferrors.NewConnectionError(src, dst, err)
	}

	p.mu.Lock()
	p.edges = append(p.edges, &edge{src: src, dst: dst, srcOut: srcOutIdx, dstIn: dstInIdx, disconnect: disconnect})
	p.mu.Unlock()
	return nil
}

// Disconnect removes a previously made Connect edge. It fails with
// dferrors.ConnectionNotFound if no matching edge exists.
func (p *Pipeline) Disconnect(src string, srcOutIdx int, dst string, dstInIdx int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.edges {
		if e.src == src && e.srcOut == srcOutIdx && e.dst == dst && e.dstIn == dstInIdx {
			e.disconnect()
			p.edges = append(p.edges[:i], p.edges[i+1:]...)
			return nil
		}
	}
	return dferrors.ConnectionNotFound
}

// RemoveModule drops a module from the pipeline. It fails with
// dferrors.StillConnected if any edge still references it.
func (p *Pipeline) RemoveModule(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.nodes[name]; !ok {
		return fmt.Errorf("pipeline: module %q not found", name)
	}
	for _, e := range p.edges {
		if e.src == name || e.dst == name {
			return dferrors.StillConnected
		}
	}
	delete(p.nodes, name)
	return nil
}

// Start transitions every active module into its driving goroutine, which
// repeatedly calls Process until it returns an error or the node is marked
// done by NotifyTerminated or ExitSync.
func (p *Pipeline) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	actives := make([]*node, 0)
	for _, n := range p.nodes {
		if n.active {
			actives = append(actives, n)
		}
	}
	p.mu.Unlock()

	p.logger.Info("pipeline starting", "module_count", len(p.nodes), "active_count", len(actives))

	for _, n := range actives {
		p.wg.Add(1)
		go p.drive(n)
	}

	go func() {
		p.wg.Wait()
		close(p.completed)
	}()
}

// drive runs one active module's Process loop until it errors or the node
// is marked done (NotifyTerminated or ExitSync); the flag is checked
// between Process calls.
func (p *Pipeline) drive(n *node) {
	defer p.wg.Done()
	for {
		n.mu.Lock()
		done := n.done
		n.mu.Unlock()
		if done {
			return
		}
		if err := n.mod.Process(); err != nil {
			p.fail(dferrors.NewModuleError(n.name, err))
			return
		}
	}
}

// fail records the first error raised by any module's Process and
// releases waitForCompletion, per spec §4.5 "Failure".
func (p *Pipeline) fail(err error) {
	p.errOnce.Do(func() {
		p.firstErr = err
		p.logger.Error("module process failed", "error", err)
	})
}

// NotifyTerminated marks a node as having seen a null packet on every
// input it ever received data on — the termination protocol's sink
// bookkeeping from spec §4.5. Modules call this through their Host/base
// helper once Process observes full termination; source modules (no
// inputs) call it directly once their Work loop is exhausted.
func (p *Pipeline) NotifyTerminated(name string) {
	p.mu.Lock()
	n, ok := p.nodes[name]
	p.mu.Unlock()
	if !ok {
		return
	}
	n.mu.Lock()
	n.done = true
	n.mu.Unlock()
}

// WaitForCompletion blocks until every active module's driving goroutine
// has returned, then returns the first error any module raised, if any.
func (p *Pipeline) WaitForCompletion() error {
	<-p.completed
	return p.firstErr
}

// ExitSync asks every active module to stop at its next opportunity by
// marking all nodes done; each driving goroutine sees the flag before its
// next Process call (a passive check, since the
// dataflow runtime has no forced-cancellation primitive for a module mid
// Process call).
func (p *Pipeline) ExitSync() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		n.mu.Lock()
		n.done = true
		n.mu.Unlock()
	}
}

// PostNull posts the termination sentinel on every output of the named
// module, implementing the source side of spec §4.5's termination
// protocol: "a source, when exhausted, posts a null packet on every
// output."
func (p *Pipeline) PostNull(name string) {
	p.mu.Lock()
	n, ok := p.nodes[name]
	p.mu.Unlock()
	if !ok {
		return
	}
	null := packet.Null()
	for i := 0; i < n.mod.NumOutputs(); i++ {
		if _, err := n.mod.Output(i).Post(null); err != nil {
			p.fail(dferrors.NewModuleError(name, err))
		}
	}
}
