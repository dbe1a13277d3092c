// Package memrepo keeps the record store in process memory. Transactions are serialized
// and rolled back by restoring a snapshot taken when they began.
package memrepo

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderledger/internal/domain"
	"github.com/nikolayk812/orderledger/internal/port"
)

type state struct {
	products map[uuid.UUID]domain.Product
	orders   map[uuid.UUID]domain.Order
	items    map[uuid.UUID]domain.OrderItem
}

func (s *state) clone() *state {
	return &state{
		products: maps.Clone(s.products),
		orders:   maps.Clone(s.orders),
		items:    maps.Clone(s.items),
	}
}

type shared struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// Store implements port.Store. The zero value is not usable, call New.
type Store struct {
	sh   *shared
	inTx bool
}

func New() *Store {
	return &Store{
		sh: &shared{
			state: &state{
				products: make(map[uuid.UUID]domain.Product),
				orders:   make(map[uuid.UUID]domain.Order),
				items:    make(map[uuid.UUID]domain.OrderItem),
			},
			now: func() time.Time { return time.Now().UTC() },
		},
	}
}

func (s *Store) Products() port.ProductRepository {
	return &productRepository{s: s}
}

func (s *Store) Orders() port.OrderRepository {
	return &orderRepository{s: s}
}

func (s *Store) OrderItems() port.OrderItemRepository {
	return &orderItemRepository{s: s}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx port.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()

	snapshot := s.sh.state.clone()

	if err := fn(&Store{sh: s.sh, inTx: true}); err != nil {
		s.sh.state = snapshot
		return err
	}

	if err := ctx.Err(); err != nil {
		s.sh.state = snapshot
		return fmt.Errorf("tx.Commit: %w", err)
	}

	return nil
}

// run executes fn under the store lock unless the store is bound to a transaction
// that already holds it.
func (s *Store) run(fn func(st *state) error) error {
	if !s.inTx {
		s.sh.mu.Lock()
		defer s.sh.mu.Unlock()
	}
	return fn(s.sh.state)
}

// orderView joins an order with its items and their products.
func orderView(st *state, order domain.Order) domain.Order {
	var items []domain.OrderItem
	for _, item := range st.items {
		if item.OrderID != order.ID {
			continue
		}
		if p, ok := st.products[item.ProductID]; ok {
			item.Product = &p
		}
		items = append(items, item)
	}

	slices.SortFunc(items, func(a, b domain.OrderItem) int {
		return compareUUID(a.ID, b.ID)
	})

	order.Items = items
	return order
}

func compareUUID(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}

var errTxRequired = errors.New("GetOrderForUpdate requires a transaction")
