package storage

import "sync"

// Change names a table whose rows were modified by a committed write.
// Subscribers treat it as a hint to re-issue their reads; no row data rides
// along, so a dropped notification only delays a refresh.
type Change struct {
	Table string
}

type subscribers struct {
	mu    sync.Mutex
	chans map[chan Change]struct{}
}

// Subscribe registers a standing listener for write notifications. The
// returned cancel func must be called when the listener goes away.
func (db *DB) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)

	db.subs.mu.Lock()
	if db.subs.chans == nil {
		db.subs.chans = make(map[chan Change]struct{})
	}
	db.subs.chans[ch] = struct{}{}
	db.subs.mu.Unlock()

	cancel := func() {
		db.subs.mu.Lock()
		delete(db.subs.chans, ch)
		db.subs.mu.Unlock()
	}
	return ch, cancel
}

// notify publishes a change for each named table. Sends never block; a slow
// subscriber misses the hint and catches up on its next poll.
func (db *DB) notify(tables ...string) {
	db.subs.mu.Lock()
	defer db.subs.mu.Unlock()
	for ch := range db.subs.chans {
		for _, t := range tables {
			select {
			case ch <- Change{Table: t}:
			default:
			}
		}
	}
}
