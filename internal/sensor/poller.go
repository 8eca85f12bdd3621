package sensor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// readFunc produces one reading for a kind.
type readFunc func(now time.Time) (math.Vec3, error)

type subscription struct {
	stop chan struct{}
	done chan struct{}
}

// poller runs one ticking goroutine per subscribed kind.
type poller struct {
	mu   sync.Mutex
	subs map[Kind]*subscription
}

func (p *poller) start(kind Kind, interval time.Duration, read readFunc, fn func(Sample)) {
	p.stop(kind)

	sub := &subscription{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	p.mu.Lock()
	if p.subs == nil {
		p.subs = make(map[Kind]*subscription)
	}
	p.subs[kind] = sub
	p.mu.Unlock()

	go p.run(kind, interval, read, fn, sub)
}

func (p *poller) run(kind Kind, interval time.Duration, read readFunc, fn func(Sample), sub *subscription) {
	defer close(sub.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-sub.stop:
			return
		case now := <-ticker.C:
			v, err := read(now)
			if err != nil {
				// Log the first failure of a run of failures only
				if !failing {
					logger.Warn("sensor read failed", zap.Stringer("kind", kind), zap.Error(err))
				}
				failing = true
				continue
			}
			failing = false
			fn(Sample{Kind: kind, Values: v, Timestamp: now})
		}
	}
}

// stop ends the goroutine for kind and waits for it to exit.
func (p *poller) stop(kind Kind) {
	p.mu.Lock()
	sub := p.subs[kind]
	delete(p.subs, kind)
	p.mu.Unlock()

	if sub == nil {
		return
	}
	close(sub.stop)
	<-sub.done
}
