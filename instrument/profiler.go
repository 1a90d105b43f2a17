package instrument

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

type ScopeStats struct {
	Last  time.Duration
	Total time.Duration
	Max   time.Duration
	Calls int
}

func (s ScopeStats) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// Profiler times named phases of the frame loop. It is not safe for
// concurrent use.
type Profiler struct {
	scopes map[string]*ScopeStats
	starts map[string]time.Time
	counts map[string]int
	order  []string
	now    func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		scopes: make(map[string]*ScopeStats),
		starts: make(map[string]time.Time),
		counts: make(map[string]int),
		now:    time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.starts[name] = p.now()
	if _, ok := p.scopes[name]; !ok {
		p.scopes[name] = &ScopeStats{}
		p.order = append(p.order, name)
	}
}

// EndScope closes a scope opened with BeginScope. Unopened scopes are ignored.
func (p *Profiler) EndScope(name string) {
	start, ok := p.starts[name]
	if !ok {
		return
	}
	delete(p.starts, name)

	d := p.now().Sub(start)
	s := p.scopes[name]
	s.Last = d
	s.Total += d
	s.Calls++
	if d > s.Max {
		s.Max = d
	}
}

// Time runs fn inside the named scope.
func (p *Profiler) Time(name string, fn func()) {
	p.BeginScope(name)
	defer p.EndScope(name)
	fn()
}

func (p *Profiler) SetCount(name string, count int) {
	p.counts[name] = count
}

func (p *Profiler) Stats(name string) ScopeStats {
	if s, ok := p.scopes[name]; ok {
		return *s
	}
	return ScopeStats{}
}

func (p *Profiler) Count(name string) int { return p.counts[name] }

// Reset clears timings but keeps scope order.
func (p *Profiler) Reset() {
	for _, s := range p.scopes {
		*s = ScopeStats{}
	}
}

func (p *Profiler) String() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.order {
		s := p.scopes[name]
		fmt.Fprintf(&sb, "  %-15s: last %.2f ms, mean %.2f ms, max %.2f ms (%d calls)\n",
			name, ms(s.Last), ms(s.Mean()), ms(s.Max), s.Calls)
	}

	sb.WriteString("\nStats:\n")
	for _, k := range slices.Sorted(maps.Keys(p.counts)) {
		fmt.Fprintf(&sb, "  %-15s: %d\n", k, p.counts[k])
	}

	return sb.String()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
