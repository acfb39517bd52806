// Package production orchestrates the shop-floor console: the stopwatch
// board, the order side effects pushed to the ERP backend, and the events
// published for downstream systems.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/Seba-07/bysimmed-production-console/internal/erp"
	kafkax "github.com/Seba-07/bysimmed-production-console/internal/kafka"
	"github.com/Seba-07/bysimmed-production-console/internal/redisx"
	"github.com/Seba-07/bysimmed-production-console/internal/timer"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found in order")
	ErrOrderNotDone    = errors.New("order has unfinished products")
)

// OrderAPI is the slice of the ERP backend the console consumes.
type OrderAPI interface {
	ListOrders(ctx context.Context) ([]erp.Order, error)
	ListComponents(ctx context.Context) ([]erp.Component, error)
	UpdateOrderStatus(ctx context.Context, orderID string, estado erp.Status) error
}

// Publisher matches kafka.Producer.Publish.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	API         OrderAPI
	Board       *timer.Board
	Transitions Publisher     // optional
	Statuses    Publisher     // optional
	Redis       *redis.Client // optional
	ServiceName string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// TransitionResult is what one timer action answers with. Warning is set
// when the accompanying ERP status push failed: the local transition stands,
// remote state may lag (never rolled back, never auto-retried).
type TransitionResult struct {
	Timer            timer.ModelView `json:"timer"`
	OrderCompletable bool            `json:"orderCompletable,omitempty"`
	Warning          string          `json:"warning,omitempty"`
}

// OrderView is one active order as the console lists it: due-date sorted,
// with priority bucket, remaining-time label, and any live timers attached.
type OrderView struct {
	ID          string        `json:"id"`
	NumeroOrden int           `json:"numeroOrden"`
	Cliente     string        `json:"cliente"`
	FechaLimite time.Time     `json:"fechaLimite"`
	Estado      erp.Status    `json:"estado"`
	Priority    Priority      `json:"priority"`
	Remaining   string        `json:"remaining"`
	Productos   []ProductView `json:"productos"`
}

type ProductView struct {
	ItemID                   string           `json:"itemId"`
	ItemType                 string           `json:"itemType"`
	ItemName                 string           `json:"itemName"`
	Cantidad                 int              `json:"cantidad"`
	ComponentesSeleccionados []string         `json:"componentesSeleccionados,omitempty"`
	Timer                    *timer.ModelView `json:"timer,omitempty"`
}

type DashboardView struct {
	Orders     []OrderView     `json:"orders"`
	Components []erp.Component `json:"components"`
}

// ActiveOrders returns the orders still on the floor (activa or en_proceso),
// sorted ascending by due date. The sort is recomputed per call, never
// maintained incrementally.
func (s *Service) ActiveOrders(ctx context.Context) ([]OrderView, error) {
	all, err := s.API.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("active orders: %w", err)
	}
	now := s.now()
	out := make([]OrderView, 0, len(all))
	for _, o := range all {
		if !o.Estado.Active() {
			continue
		}
		out = append(out, s.orderView(o, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaLimite.Before(out[j].FechaLimite) })
	return out, nil
}

// Dashboard loads orders and the component catalog concurrently, the same
// pair the console fetches on every page load.
func (s *Service) Dashboard(ctx context.Context) (DashboardView, error) {
	var (
		orders []OrderView
		comps  []erp.Component
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.ActiveOrders(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		comps, err = s.Components(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}
	return DashboardView{Orders: orders, Components: comps}, nil
}

// Components returns the component catalog, serving the Redis cache when it
// is warm and falling through to the ERP API otherwise.
func (s *Service) Components(ctx context.Context) ([]erp.Component, error) {
	if s.Redis != nil {
		if b, err := s.Redis.Get(ctx, redisx.KeyComponentCatalog).Bytes(); err == nil {
			var out []erp.Component
			if json.Unmarshal(b, &out) == nil {
				return out, nil
			}
		}
	}
	comps, err := s.API.ListComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("components: %w", err)
	}
	if s.Redis != nil {
		if b, err := json.Marshal(comps); err == nil {
			_ = s.Redis.Set(ctx, redisx.KeyComponentCatalog, b, redisx.TTLComponentCatalog).Err()
		}
	}
	return comps, nil
}

// StartProduct lazily creates the model timer for (order, product) and
// starts it. First activity on an order still in activa pushes en_proceso
// upstream, fire-and-forget.
func (s *Service) StartProduct(ctx context.Context, orderID, productID string) (TransitionResult, error) {
	order, seed, err := s.loadSeed(ctx, orderID, productID)
	if err != nil {
		return TransitionResult{}, err
	}
	view, err := s.Board.StartModel(timer.Key{OrderID: orderID, ProductID: productID}, seed)
	if err != nil {
		return TransitionResult{}, err
	}
	res := TransitionResult{Timer: view}
	s.markInProgress(ctx, order, &res)
	s.publishTransition(EventTimerStarted, view, "")
	return res, nil
}

func (s *Service) PauseProduct(ctx context.Context, orderID, productID string) (TransitionResult, error) {
	view, err := s.Board.PauseModel(timer.Key{OrderID: orderID, ProductID: productID})
	if err != nil {
		return TransitionResult{}, err
	}
	s.publishTransition(EventTimerPaused, view, "")
	return TransitionResult{Timer: view}, nil
}

func (s *Service) ResetProduct(ctx context.Context, orderID, productID string) (TransitionResult, error) {
	view, err := s.Board.ResetModel(timer.Key{OrderID: orderID, ProductID: productID})
	if err != nil {
		return TransitionResult{}, err
	}
	s.publishTransition(EventTimerReset, view, "")
	return TransitionResult{Timer: view}, nil
}

// CompleteProduct finishes a model timer (refused while components are open)
// and reports whether the whole order is now completable.
func (s *Service) CompleteProduct(ctx context.Context, orderID, productID string) (TransitionResult, error) {
	view, err := s.Board.CompleteModel(timer.Key{OrderID: orderID, ProductID: productID})
	if err != nil {
		return TransitionResult{}, err
	}
	res := TransitionResult{Timer: view}
	res.OrderCompletable = s.orderCompletable(ctx, orderID)
	s.publishTransition(EventTimerCompleted, view, "")
	return res, nil
}

func (s *Service) StartComponent(ctx context.Context, orderID, productID, componentID string) (TransitionResult, error) {
	order, seed, err := s.loadSeed(ctx, orderID, productID)
	if err != nil {
		return TransitionResult{}, err
	}
	view, err := s.Board.StartComponent(timer.Key{OrderID: orderID, ProductID: productID}, seed, componentID)
	if err != nil {
		return TransitionResult{}, err
	}
	res := TransitionResult{Timer: view}
	s.markInProgress(ctx, order, &res)
	s.publishTransition(EventTimerStarted, view, componentID)
	return res, nil
}

func (s *Service) PauseComponent(ctx context.Context, orderID, productID, componentID string) (TransitionResult, error) {
	view, err := s.Board.PauseComponent(timer.Key{OrderID: orderID, ProductID: productID}, componentID)
	if err != nil {
		return TransitionResult{}, err
	}
	s.publishTransition(EventTimerPaused, view, componentID)
	return TransitionResult{Timer: view}, nil
}

func (s *Service) ResetComponent(ctx context.Context, orderID, productID, componentID string) (TransitionResult, error) {
	view, err := s.Board.ResetComponent(timer.Key{OrderID: orderID, ProductID: productID}, componentID)
	if err != nil {
		return TransitionResult{}, err
	}
	s.publishTransition(EventTimerReset, view, componentID)
	return TransitionResult{Timer: view}, nil
}

func (s *Service) CompleteComponent(ctx context.Context, orderID, productID, componentID string) (TransitionResult, error) {
	view, err := s.Board.CompleteComponent(timer.Key{OrderID: orderID, ProductID: productID}, componentID)
	if err != nil {
		return TransitionResult{}, err
	}
	res := TransitionResult{Timer: view}
	res.OrderCompletable = s.orderCompletable(ctx, orderID)
	s.publishTransition(EventTimerCompleted, view, componentID)
	return res, nil
}

// CompleteOrder pushes completada upstream and drops the order's timers.
// Unlike the en_proceso side effect there is no local transition to keep, so
// a failed push is returned to the caller to retry.
func (s *Service) CompleteOrder(ctx context.Context, orderID string) error {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !s.orderCompletable(ctx, orderID) {
		return ErrOrderNotDone
	}
	if err := s.API.UpdateOrderStatus(ctx, order.ID, erp.StatusCompletada); err != nil {
		s.publishStatus(order.ID, erp.StatusCompletada, err)
		return fmt.Errorf("complete order %s: %w", orderID, err)
	}
	s.cacheStatus(ctx, order.ID, erp.StatusCompletada)
	s.publishStatus(order.ID, erp.StatusCompletada, nil)
	s.Board.DropOrder(orderID)
	return nil
}

// orderCompletable is true once every product of the order has a completed
// model timer. Orders we cannot re-fetch just report false.
func (s *Service) orderCompletable(ctx context.Context, orderID string) bool {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return false
	}
	ids := make([]string, 0, len(order.Productos))
	for _, p := range order.Productos {
		ids = append(ids, p.ItemID)
	}
	return s.Board.AllCompleted(orderID, ids)
}

func (s *Service) findOrder(ctx context.Context, orderID string) (erp.Order, error) {
	all, err := s.API.ListOrders(ctx)
	if err != nil {
		return erp.Order{}, fmt.Errorf("find order: %w", err)
	}
	for _, o := range all {
		if o.ID == orderID {
			return o, nil
		}
	}
	return erp.Order{}, ErrOrderNotFound
}

// loadSeed fetches the order and the component catalog concurrently and
// builds the seed for lazy timer creation, resolving component display
// names from the catalog.
func (s *Service) loadSeed(ctx context.Context, orderID, productID string) (erp.Order, timer.Seed, error) {
	var (
		order erp.Order
		comps []erp.Component
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = s.findOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		comps, err = s.Components(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return erp.Order{}, timer.Seed{}, err
	}

	var product *erp.OrderProduct
	for i := range order.Productos {
		if order.Productos[i].ItemID == productID {
			product = &order.Productos[i]
			break
		}
	}
	if product == nil {
		return erp.Order{}, timer.Seed{}, ErrProductNotFound
	}

	names := make(map[string]string, len(comps))
	for _, c := range comps {
		names[c.ID] = c.Nombre
	}
	seed := timer.Seed{
		ItemName: product.ItemName,
		ItemType: product.ItemType,
		Quantity: product.Cantidad,
	}
	for _, id := range product.ComponentesSeleccionados {
		name := names[id]
		if name == "" {
			name = id
		}
		seed.Components = append(seed.Components, timer.ComponentRef{ID: id, Name: name})
	}
	return order, seed, nil
}

// markInProgress pushes en_proceso for an order seeing its first activity.
// Failures are logged, published, and surfaced as a warning; the local timer
// transition is never rolled back.
func (s *Service) markInProgress(ctx context.Context, order erp.Order, res *TransitionResult) {
	if !erp.CanTransition(order.Estado, erp.StatusEnProceso) {
		return
	}
	if err := s.API.UpdateOrderStatus(ctx, order.ID, erp.StatusEnProceso); err != nil {
		log.Printf("order %s: push en_proceso: %v", order.ID, err)
		res.Warning = "order status update failed; remote state may lag the timer"
		s.publishStatus(order.ID, erp.StatusEnProceso, err)
		return
	}
	s.cacheStatus(ctx, order.ID, erp.StatusEnProceso)
	s.publishStatus(order.ID, erp.StatusEnProceso, nil)
}

func (s *Service) cacheStatus(ctx context.Context, orderID string, estado erp.Status) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = s.Redis.Set(ctx, key, string(estado), redisx.TTLStatusCache).Err()
}

func (s *Service) publishTransition(event string, v timer.ModelView, componentID string) {
	if s.Transitions == nil {
		return
	}
	payload := TimerTransitionPayload{
		OrderID:        v.OrderID,
		ProductID:      v.ProductID,
		Status:         v.Status,
		ElapsedSeconds: v.ElapsedSeconds,
	}
	if componentID != "" {
		if c, ok := v.Component(componentID); ok {
			payload.ComponentID = componentID
			payload.Status = c.Status
			payload.ElapsedSeconds = c.ElapsedSeconds
		}
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     event,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: v.OrderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Transitions.Publish(PartitionKey(v.OrderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(event)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishStatus(orderID string, estado erp.Status, pushErr error) {
	if s.Statuses == nil {
		return
	}
	payload := OrderStatusPayload{OrderID: orderID, Estado: estado, Pushed: pushErr == nil}
	if pushErr != nil {
		payload.Error = pushErr.Error()
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderStatus,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Statuses.Publish(PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderStatus)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) orderView(o erp.Order, now time.Time) OrderView {
	v := OrderView{
		ID:          o.ID,
		NumeroOrden: o.NumeroOrden,
		Cliente:     o.Cliente,
		FechaLimite: o.FechaLimite,
		Estado:      o.Estado,
		Priority:    PriorityFor(o.FechaLimite, now),
		Remaining:   RemainingLabel(o.FechaLimite, now),
	}
	for _, p := range o.Productos {
		pv := ProductView{
			ItemID:                   p.ItemID,
			ItemType:                 p.ItemType,
			ItemName:                 p.ItemName,
			Cantidad:                 p.Cantidad,
			ComponentesSeleccionados: p.ComponentesSeleccionados,
		}
		if tv, ok := s.Board.Snapshot(timer.Key{OrderID: o.ID, ProductID: p.ItemID}); ok {
			pv.Timer = &tv
		}
		v.Productos = append(v.Productos, pv)
	}
	return v
}
