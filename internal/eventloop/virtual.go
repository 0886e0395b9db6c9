package eventloop

import (
	"sort"
	"time"
)

// Virtual is a deterministic Loop driven by a manual clock. It is not safe for
// concurrent use; tests drive it from a single goroutine.
type Virtual struct {
	now    time.Time
	frame  time.Duration
	seq    uint64
	queue  []func()
	timers []*virtualTimer
}

// NewVirtual starts the clock at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start, frame: DefaultFrameInterval}
}

// Post queues fn until the next Flush or Advance.
func (v *Virtual) Post(fn func()) {
	if fn != nil {
		v.queue = append(v.queue, fn)
	}
}

// AfterFunc schedules fn at Now()+d.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{when: v.now.Add(d), seq: v.seq, fn: fn}
	v.timers = append(v.timers, t)
	return t
}

// RequestFrame schedules fn one frame interval ahead.
func (v *Virtual) RequestFrame(fn func()) Timer {
	return v.AfterFunc(v.frame, fn)
}

// Now returns the virtual clock.
func (v *Virtual) Now() time.Time {
	return v.now
}

// FrameInterval is the spacing of RequestFrame callbacks.
func (v *Virtual) FrameInterval() time.Duration {
	return v.frame
}

// Flush runs posted callbacks, including ones posted while flushing.
func (v *Virtual) Flush() {
	for len(v.queue) > 0 {
		fn := v.queue[0]
		v.queue = v.queue[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in order.
func (v *Virtual) Advance(d time.Duration) {
	v.Flush()
	target := v.now.Add(d)
	for {
		next := v.nextDue(target)
		if next == nil {
			break
		}
		v.now = next.when
		next.done = true
		next.fn()
		v.Flush()
	}
	v.now = target
}

// Pending counts timers that have neither fired nor been stopped.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (v *Virtual) nextDue(limit time.Time) *virtualTimer {
	live := v.timers[:0]
	for _, t := range v.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	v.timers = live
	sort.SliceStable(v.timers, func(i, j int) bool {
		if v.timers[i].when.Equal(v.timers[j].when) {
			return v.timers[i].seq < v.timers[j].seq
		}
		return v.timers[i].when.Before(v.timers[j].when)
	})
	if len(v.timers) == 0 || v.timers[0].when.After(limit) {
		return nil
	}
	return v.timers[0]
}

type virtualTimer struct {
	when time.Time
	seq  uint64
	fn   func()
	done bool
}

func (t *virtualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}
