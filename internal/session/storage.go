package session

import "sync"

// Storage is a string key/value store such as a browser's localStorage or
// sessionStorage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
	Clear()
}

// MemoryStore is a private, per-tab Storage.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
}

// SharedStorage is visible to every tab. A change made through one tab's
// handle is announced as an EventStorage to every other tab, never to the
// tab that made it. Each tab receives its events in order on its own
// goroutine, so a slow listener never stalls the writer.
type SharedStorage struct {
	mu        sync.Mutex
	data      map[string]string
	listeners map[int]*listener
	nextID    int
}

// NewSharedStorage returns an empty shared store.
func NewSharedStorage() *SharedStorage {
	return &SharedStorage{
		data:      make(map[string]string),
		listeners: make(map[int]*listener),
	}
}

// Tab opens a handle for one tab.
func (s *SharedStorage) Tab() *TabStorage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return &TabStorage{shared: s, id: s.nextID}
}

func (s *SharedStorage) mutate(from int, ev Event, apply func(map[string]string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !apply(s.data) {
		return
	}
	for id, l := range s.listeners {
		if id != from {
			l.push(ev)
		}
	}
}

// listener is an unbounded mailbox drained by one goroutine.
type listener struct {
	fn      func(Event)
	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
	stop    chan struct{}
}

func newListener(fn func(Event)) *listener {
	l := &listener{
		fn:   fn,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *listener) push(ev Event) {
	l.mu.Lock()
	l.pending = append(l.pending, ev)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *listener) run() {
	for {
		select {
		case <-l.stop:
			return
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			batch := l.pending
			l.pending = nil
			l.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, ev := range batch {
				select {
				case <-l.stop:
					return
				default:
				}
				l.fn(ev)
			}
		}
	}
}

func (l *listener) close() {
	close(l.stop)
}

// TabStorage is one tab's handle on SharedStorage.
type TabStorage struct {
	shared *SharedStorage
	id     int
}

// OnChange registers fn to receive changes made by other tabs. Calls to fn
// are serialized and arrive in the order the changes were made.
func (t *TabStorage) OnChange(fn func(Event)) {
	t.shared.mu.Lock()
	defer t.shared.mu.Unlock()
	if old, ok := t.shared.listeners[t.id]; ok {
		old.close()
	}
	t.shared.listeners[t.id] = newListener(fn)
}

// Close stops change delivery to this tab.
func (t *TabStorage) Close() {
	t.shared.mu.Lock()
	defer t.shared.mu.Unlock()
	if l, ok := t.shared.listeners[t.id]; ok {
		l.close()
		delete(t.shared.listeners, t.id)
	}
}

func (t *TabStorage) Get(key string) (string, bool) {
	t.shared.mu.Lock()
	defer t.shared.mu.Unlock()
	v, ok := t.shared.data[key]
	return v, ok
}

func (t *TabStorage) Set(key, value string) {
	t.shared.mutate(t.id, Event{Kind: EventStorage, Key: key, NewValue: value}, func(data map[string]string) bool {
		if old, ok := data[key]; ok && old == value {
			return false
		}
		data[key] = value
		return true
	})
}

func (t *TabStorage) Remove(key string) {
	t.shared.mutate(t.id, Event{Kind: EventStorage, Key: key}, func(data map[string]string) bool {
		if _, ok := data[key]; !ok {
			return false
		}
		delete(data, key)
		return true
	})
}

func (t *TabStorage) Clear() {
	t.shared.mutate(t.id, Event{Kind: EventStorage}, func(data map[string]string) bool {
		if len(data) == 0 {
			return false
		}
		for k := range data {
			delete(data, k)
		}
		return true
	})
}
