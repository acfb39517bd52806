package timer

import (
	"sync"
	"time"
)

// Seed describes the product a model timer is lazily created for.
type Seed struct {
	ItemName   string
	ItemType   string
	Quantity   int
	Components []ComponentRef
}

type ComponentRef struct {
	ID   string
	Name string
}

// Board holds every live model timer, keyed by (order, product). All
// mutation goes through its methods under one mutex; callers only ever see
// value snapshots. Contents are volatile: a restart discards every timer and
// nothing repopulates them.
type Board struct {
	mu     sync.Mutex
	timers map[Key]*ModelTimer
	now    func() time.Time
}

func NewBoard(now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{timers: make(map[Key]*ModelTimer), now: now}
}

// ensure returns the timer for key, creating it pending on first use.
// Caller must hold b.mu.
func (b *Board) ensure(key Key, seed Seed) *ModelTimer {
	if m, ok := b.timers[key]; ok {
		return m
	}
	m := &ModelTimer{
		Key:      key,
		ItemName: seed.ItemName,
		ItemType: seed.ItemType,
		Quantity: seed.Quantity,
		Timer:    Timer{Status: StatusPending},
	}
	for _, ref := range seed.Components {
		m.Components = append(m.Components, &ComponentTimer{
			ComponentID: ref.ID,
			Name:        ref.Name,
			Timer:       Timer{Status: StatusPending},
		})
	}
	b.timers[key] = m
	return m
}

func (b *Board) StartModel(key Key, seed Seed) (ModelView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.ensure(key, seed)
	if err := m.Start(b.now()); err != nil {
		return ModelView{}, err
	}
	return b.view(m), nil
}

func (b *Board) PauseModel(key Key) (ModelView, error) {
	return b.mutate(key, func(m *ModelTimer) error { return m.Pause(b.now()) })
}

func (b *Board) ResetModel(key Key) (ModelView, error) {
	return b.mutate(key, func(m *ModelTimer) error { return m.Reset() })
}

func (b *Board) CompleteModel(key Key) (ModelView, error) {
	return b.mutate(key, func(m *ModelTimer) error { return m.CompleteModel(b.now()) })
}

// StartComponent lazily creates the model timer as well, so starting a
// component is enough to bring the whole product onto the board.
func (b *Board) StartComponent(key Key, seed Seed, componentID string) (ModelView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.ensure(key, seed)
	c := m.component(componentID)
	if c == nil {
		return ModelView{}, ErrComponentNotFound
	}
	if err := c.Start(b.now()); err != nil {
		return ModelView{}, err
	}
	return b.view(m), nil
}

func (b *Board) PauseComponent(key Key, componentID string) (ModelView, error) {
	return b.mutateComponent(key, componentID, func(c *ComponentTimer) error { return c.Pause(b.now()) })
}

func (b *Board) ResetComponent(key Key, componentID string) (ModelView, error) {
	return b.mutateComponent(key, componentID, func(c *ComponentTimer) error { return c.Reset() })
}

func (b *Board) CompleteComponent(key Key, componentID string) (ModelView, error) {
	return b.mutateComponent(key, componentID, func(c *ComponentTimer) error { return c.Complete(b.now()) })
}

func (b *Board) mutate(key Key, fn func(*ModelTimer) error) (ModelView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.timers[key]
	if !ok {
		return ModelView{}, ErrNotFound
	}
	if err := fn(m); err != nil {
		return ModelView{}, err
	}
	return b.view(m), nil
}

func (b *Board) mutateComponent(key Key, componentID string, fn func(*ComponentTimer) error) (ModelView, error) {
	return b.mutate(key, func(m *ModelTimer) error {
		c := m.component(componentID)
		if c == nil {
			return ErrComponentNotFound
		}
		return fn(c)
	})
}

// Tick recomputes elapsed seconds for every running timer and returns how
// many were refreshed. Elapsed time is re-derived from the start instants,
// so a late or dropped tick loses nothing.
func (b *Board) Tick() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	n := 0
	for _, m := range b.timers {
		if m.Status == StatusInProgress {
			m.Refresh(now)
			n++
		}
		for _, c := range m.Components {
			if c.Status == StatusInProgress {
				c.Refresh(now)
				n++
			}
		}
	}
	return n
}

// Snapshot returns a value copy of one model timer, if present.
func (b *Board) Snapshot(key Key) (ModelView, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.timers[key]
	if !ok {
		return ModelView{}, false
	}
	return b.view(m), true
}

// AllCompleted reports whether every given product of an order has a
// completed model timer. A product with no timer yet counts as not done.
func (b *Board) AllCompleted(orderID string, productIDs []string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, pid := range productIDs {
		m, ok := b.timers[Key{OrderID: orderID, ProductID: pid}]
		if !ok || m.Status != StatusCompleted {
			return false
		}
	}
	return len(productIDs) > 0
}

// DropOrder discards every timer belonging to an order.
func (b *Board) DropOrder(orderID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.timers {
		if k.OrderID == orderID {
			delete(b.timers, k)
		}
	}
}

func (b *Board) view(m *ModelTimer) ModelView {
	now := b.now()
	v := ModelView{
		OrderID:        m.Key.OrderID,
		ProductID:      m.Key.ProductID,
		ItemName:       m.ItemName,
		ItemType:       m.ItemType,
		Quantity:       m.Quantity,
		Status:         m.Status,
		ElapsedSeconds: m.elapsedAt(now),
		StartedAt:      copyTime(m.StartedAt),
		CanFinish:      m.Status != StatusCompleted && m.ComponentsCompleted(),
	}
	for _, c := range m.Components {
		v.Components = append(v.Components, ComponentView{
			ComponentID:    c.ComponentID,
			Name:           c.Name,
			Status:         c.Status,
			ElapsedSeconds: c.elapsedAt(now),
			StartedAt:      copyTime(c.StartedAt),
		})
	}
	return v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// ModelView is a detached snapshot of one model timer, safe to hand out and
// serialize after the board lock is released.
type ModelView struct {
	OrderID        string          `json:"orderId"`
	ProductID      string          `json:"productId"`
	ItemName       string          `json:"itemName"`
	ItemType       string          `json:"itemType"`
	Quantity       int             `json:"quantity"`
	Status         Status          `json:"status"`
	ElapsedSeconds int64           `json:"elapsedSeconds"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CanFinish      bool            `json:"canFinish"`
	Components     []ComponentView `json:"components,omitempty"`
}

type ComponentView struct {
	ComponentID    string     `json:"componentId"`
	Name           string     `json:"name"`
	Status         Status     `json:"status"`
	ElapsedSeconds int64      `json:"elapsedSeconds"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
}

// Component returns the snapshot of one component timer inside the view.
func (v ModelView) Component(id string) (ComponentView, bool) {
	for _, c := range v.Components {
		if c.ComponentID == id {
			return c, true
		}
	}
	return ComponentView{}, false
}
