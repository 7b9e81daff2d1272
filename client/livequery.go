package client

import "sort"

// LiveQuery is a filtered, sorted view over one collection. Results are
// recomputed lazily on read; Changed fires whenever the backing collection
// changes, so a consumer loops on Changed and calls Results.
type LiveQuery[T any] struct {
	col     *Collection[T]
	filter  func(T) bool
	less    func(a, b T) bool
	changed <-chan struct{}
	cancel  func()
}

// NewLiveQuery builds a view over col. A nil filter keeps every row; a nil
// less leaves order unspecified.
func NewLiveQuery[T any](col *Collection[T], filter func(T) bool, less func(a, b T) bool) *LiveQuery[T] {
	ch, cancel := col.Subscribe()
	return &LiveQuery[T]{col: col, filter: filter, less: less, changed: ch, cancel: cancel}
}

func (q *LiveQuery[T]) Results() []T {
	rows := q.col.Rows()
	out := rows[:0]
	for _, row := range rows {
		if q.filter == nil || q.filter(row) {
			out = append(out, row)
		}
	}
	if q.less != nil {
		sort.SliceStable(out, func(i, j int) bool { return q.less(out[i], out[j]) })
	}
	return out
}

// Changed receives a signal after any change to the backing collection. The
// channel is coalescing.
func (q *LiveQuery[T]) Changed() <-chan struct{} { return q.changed }

func (q *LiveQuery[T]) Close() { q.cancel() }

// JoinQuery derives rows from two collections. Compute receives snapshots of
// both and returns the joined result; it runs on every read.
type JoinQuery[A, B, R any] struct {
	left    *Collection[A]
	right   *Collection[B]
	compute func(left []A, right []B) []R
	changed chan struct{}
	done    chan struct{}
	cancels []func()
}

func NewJoinQuery[A, B, R any](left *Collection[A], right *Collection[B], compute func([]A, []B) []R) *JoinQuery[A, B, R] {
	q := &JoinQuery[A, B, R]{
		left:    left,
		right:   right,
		compute: compute,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	lch, lcancel := left.Subscribe()
	rch, rcancel := right.Subscribe()
	q.cancels = []func(){lcancel, rcancel}
	go q.forward(lch, rch)
	return q
}

func (q *JoinQuery[A, B, R]) forward(a, b <-chan struct{}) {
	for {
		select {
		case <-q.done:
			return
		case <-a:
		case <-b:
		}
		select {
		case q.changed <- struct{}{}:
		default:
		}
	}
}

func (q *JoinQuery[A, B, R]) Results() []R {
	return q.compute(q.left.Rows(), q.right.Rows())
}

func (q *JoinQuery[A, B, R]) Changed() <-chan struct{} { return q.changed }

func (q *JoinQuery[A, B, R]) Close() {
	close(q.done)
	for _, cancel := range q.cancels {
		cancel()
	}
}
