package rooms

import (
	"hash/fnv"
	"sync"
)

const lockShards = 32

// lockTable hands out one mutex per room code. Mutexes are created on first
// use and dropped when the room goes away.
type lockTable struct {
	shards [lockShards]lockShard
}

type lockShard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (t *lockTable) shard(code string) *lockShard {
	h := fnv.New32a()
	h.Write([]byte(code))
	return &t.shards[h.Sum32()%lockShards]
}

// get returns the room's mutex. A missing one is only created while alive
// reports true; otherwise get returns nil. Delete unregisters a room before
// removing its mutex, so a room deleted concurrently leaves no entry behind.
func (t *lockTable) get(code string, alive func() bool) *sync.Mutex {
	sh := t.shard(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if l, ok := sh.locks[code]; ok {
		return l
	}
	if !alive() {
		return nil
	}
	if sh.locks == nil {
		sh.locks = make(map[string]*sync.Mutex)
	}
	l := &sync.Mutex{}
	sh.locks[code] = l
	return l
}

func (t *lockTable) remove(code string) {
	sh := t.shard(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.locks, code)
}

func (t *lockTable) len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.locks)
		sh.mu.Unlock()
	}
	return n
}
