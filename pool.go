package booklet

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// DefaultConcurrency is the batch worker count when none is configured.
	DefaultConcurrency = 2

	// AutoConcurrency sizes the pool from GOMAXPROCS.
	AutoConcurrency = -1

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ProducerPool hands out producers so each batch worker drives its own
// browser. Producers are created lazily on first acquire.
type ProducerPool struct {
	size      int
	factory   ProducerFactory
	producers []Producer
	sem       chan Producer
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewProducerPool creates a pool with capacity for n producers.
func NewProducerPool(n int, factory ProducerFactory) *ProducerPool {
	if n < 1 {
		n = 1
	}

	return &ProducerPool{
		size:      n,
		factory:   factory,
		producers: make([]Producer, 0, n),
		sem:       make(chan Producer, n),
	}
}

// Acquire gets a producer, creating one if capacity remains. Blocks when
// all producers are in use.
func (p *ProducerPool) Acquire() (Producer, error) {
	select {
	case prod, ok := <-p.sem:
		if !ok {
			return nil, errPoolClosed
		}
		return prod, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create outside the lock
		prod, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.producers = append(p.producers, prod)
		p.mu.Unlock()

		return prod, nil
	}
	p.mu.Unlock()

	prod, ok := <-p.sem
	if !ok {
		return nil, errPoolClosed
	}
	return prod, nil
}

// Release returns a producer to the pool. The channel holds every
// producer ever created, so the send never blocks under the lock.
func (p *ProducerPool) Release(prod Producer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- prod
}

// Close releases every producer created so far.
// Returns an aggregated error if several fail to close.
func (p *ProducerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	producers := p.producers
	p.mu.Unlock()

	var errs []error
	for _, prod := range producers {
		if err := prod.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ProducerPool) Size() int {
	return p.size
}

// Created returns how many producers have been built.
func (p *ProducerPool) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

var errPoolClosed = errors.New("producer pool is closed")

// ResolvePoolSize determines the worker count: explicit workers, then
// DefaultConcurrency for 0, then a GOMAXPROCS-based size for
// AutoConcurrency or any other negative value.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}
	if workers == 0 {
		return DefaultConcurrency
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
