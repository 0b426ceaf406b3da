package scheduler

import (
	"sort"
	"time"
)

// Entry pairs a scheduler with its interval.
type Entry struct {
	Scheduler *Scheduler
	Interval  time.Duration
}

// Group starts and stops a set of schedulers together.
type Group struct {
	entries map[string]Entry
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{entries: make(map[string]Entry)}
}

// Add registers s under its poller's name, replacing any previous entry.
func (g *Group) Add(s *Scheduler, interval time.Duration) {
	name := s.Poller().Name()
	if old, ok := g.entries[name]; ok {
		old.Scheduler.Stop()
	}
	g.entries[name] = Entry{Scheduler: s, Interval: interval}
}

// Get returns the scheduler registered under name.
func (g *Group) Get(name string) (*Scheduler, bool) {
	e, ok := g.entries[name]
	return e.Scheduler, ok
}

// Names lists registered pollers in sorted order.
func (g *Group) Names() []string {
	names := make([]string, 0, len(g.entries))
	for n := range g.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StartAll starts every scheduler.
func (g *Group) StartAll() {
	for _, e := range g.entries {
		e.Scheduler.Start(e.Interval)
	}
}

// StopAll stops every scheduler.
func (g *Group) StopAll() {
	for _, e := range g.entries {
		e.Scheduler.Stop()
	}
}

// TriggerAll runs an out-of-band fetch on every scheduler.
func (g *Group) TriggerAll() {
	for _, e := range g.entries {
		e.Scheduler.Trigger()
	}
}

// Wait waits for in-flight fetches of every scheduler.
func (g *Group) Wait() {
	for _, e := range g.entries {
		e.Scheduler.Wait()
	}
}
