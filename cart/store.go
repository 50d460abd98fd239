package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Change is published to subscribers whenever a device's cart list changes.
type Change struct {
	DeviceID string    `json:"device_id"`
	Items    []int     `json:"items"`
	At       time.Time `json:"at"`
}

// Scope is the seating unit a device is ordering for.
type Scope struct {
	Kind   models.UnitKind `json:"kind"`
	Number string          `json:"number"`
}

// Store keeps the membership-only cart per device. Adding an id that is
// already present does not change the list.
type Store struct {
	kv KV

	writeMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int

	now func() time.Time
}

func NewStore(kv KV) *Store {
	return &Store{
		kv:   kv,
		subs: make(map[int]chan Change),
		now:  time.Now,
	}
}

// Items returns the cart for deviceID, normalizing legacy shapes on the way.
// Unreadable stored data counts as an empty cart.
func (s *Store) Items(ctx context.Context, deviceID string) ([]int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.load(ctx, deviceID)
}

func (s *Store) Contains(ctx context.Context, deviceID string, productID int) (bool, error) {
	items, err := s.Items(ctx, deviceID)
	if err != nil {
		return false, err
	}
	return indexOf(items, productID) >= 0, nil
}

// Add appends productID unless it is already in the cart. changed is false
// for repeated adds.
func (s *Store) Add(ctx context.Context, deviceID string, productID int) (items []int, changed bool, err error) {
	if productID <= 0 {
		return nil, false, fmt.Errorf("invalid product id %d", productID)
	}
	return s.mutate(ctx, deviceID, func(items []int) ([]int, bool) {
		if indexOf(items, productID) >= 0 {
			return items, false
		}
		return append(items, productID), true
	})
}

// Remove filters productID out; removing a non-member is a no-op.
func (s *Store) Remove(ctx context.Context, deviceID string, productID int) (items []int, changed bool, err error) {
	return s.mutate(ctx, deviceID, func(items []int) ([]int, bool) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, false
		}
		return append(items[:i:i], items[i+1:]...), true
	})
}

func (s *Store) Clear(ctx context.Context, deviceID string) error {
	_, _, err := s.mutate(ctx, deviceID, func(items []int) ([]int, bool) {
		return []int{}, len(items) > 0
	})
	return err
}

func (s *Store) mutate(ctx context.Context, deviceID string, fn func([]int) ([]int, bool)) ([]int, bool, error) {
	s.writeMu.Lock()
	items, err := s.load(ctx, deviceID)
	if err != nil {
		s.writeMu.Unlock()
		return nil, false, err
	}

	next, changed := fn(items)
	if !changed {
		s.writeMu.Unlock()
		return next, false, nil
	}
	if err := s.save(ctx, deviceID, next); err != nil {
		s.writeMu.Unlock()
		return nil, false, err
	}
	s.writeMu.Unlock()

	s.publish(Change{DeviceID: deviceID, Items: append([]int(nil), next...), At: s.now()})
	return next, true, nil
}

func (s *Store) load(ctx context.Context, deviceID string) ([]int, error) {
	raw, ok, err := s.kv.Get(ctx, deviceID, models.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if !ok || raw == "" {
		return []int{}, nil
	}

	items, canonical, err := Normalize([]byte(raw))
	if err != nil {
		utils.InfoLogger.Debugf("discarding unreadable cart for device %s: %v", deviceID, err)
		return []int{}, nil
	}
	if !canonical {
		if err := s.save(ctx, deviceID, items); err != nil {
			utils.ErrorLogger.Printf("rewrite normalized cart for device %s: %v", deviceID, err)
		}
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, deviceID string, items []int) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, deviceID, models.KeyCart, string(data)); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

// Subscribe registers a listener for cart changes on every device. A slow
// listener loses its oldest pending change rather than blocking writers.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(change Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
}

func (s *Store) Scope(ctx context.Context, deviceID string) (Scope, bool, error) {
	number, ok, err := s.kv.Get(ctx, deviceID, models.KeyTableNumber)
	if err != nil || !ok || number == "" {
		return Scope{}, false, err
	}
	kind := models.KindTable
	if raw, ok, err := s.kv.Get(ctx, deviceID, models.KeyUnitKind); err != nil {
		return Scope{}, false, err
	} else if ok {
		if parsed, err := models.ParseUnitKind(raw); err == nil {
			kind = parsed
		}
	}
	return Scope{Kind: kind, Number: number}, true, nil
}

func (s *Store) SetScope(ctx context.Context, deviceID string, scope Scope) error {
	if err := s.kv.Set(ctx, deviceID, models.KeyTableNumber, scope.Number); err != nil {
		return err
	}
	return s.kv.Set(ctx, deviceID, models.KeyUnitKind, string(scope.Kind))
}

func (s *Store) LastOrder(ctx context.Context, deviceID string) (int, bool, error) {
	raw, ok, err := s.kv.Get(ctx, deviceID, models.KeyLastOrder)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

func (s *Store) SetLastOrder(ctx context.Context, deviceID string, basketID int) error {
	return s.kv.Set(ctx, deviceID, models.KeyLastOrder, strconv.Itoa(basketID))
}

func indexOf(items []int, id int) int {
	for i, v := range items {
		if v == id {
			return i
		}
	}
	return -1
}
