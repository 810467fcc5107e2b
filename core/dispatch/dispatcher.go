package dispatch

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/factorysim/core/events"
	"github.com/kilianp07/factorysim/core/logger"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// Command names used in rejection events and metrics.
const (
	CommandDeploy    = "deploy"
	CommandDeployAll = "deploy_all"
	CommandGrid      = "grid"
)

// GridCommand moves one cart straight to a grid coordinate. Nil coordinates
// mean the operator did not pick a target.
type GridCommand struct {
	CartID string   `json:"cart_id"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

// NewGridCommand builds a fully specified GridCommand.
func NewGridCommand(cartID string, x, y float64) GridCommand {
	return GridCommand{CartID: cartID, X: &x, Y: &y}
}

type inFlight struct {
	delivery     *model.Delivery
	assignedTick uint64
}

// Dispatcher owns the cart pool, the pending queue and the ledger of
// deliveries in flight. It is not safe for concurrent use; production code
// drives it from the engine runner goroutine only.
type Dispatcher struct {
	cfg     Config
	carts   []*model.Cart
	byID    map[string]*model.Cart
	queue   *Queue
	active  map[string]*inFlight
	history []model.Delivery
	nextID  int64
	tick    uint64

	catalog EquipmentSource
	rng     RandomSource
	bus     eventbus.EventBus
	log     logger.Logger
	now     func() time.Time
}

// NewDispatcher registers carts in priority order. catalog and rng default to
// the standard equipment layout and a time seeded source; bus may be nil.
func NewDispatcher(carts []*model.Cart, cfg Config, catalog EquipmentSource, rng RandomSource, bus eventbus.EventBus, log logger.Logger) (*Dispatcher, error) {
	if len(carts) == 0 {
		return nil, fmt.Errorf("dispatch: at least one cart is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Cart, len(carts))
	for _, c := range carts {
		if c == nil {
			return nil, fmt.Errorf("dispatch: nil cart")
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("dispatch: duplicate cart id %s", c.ID)
		}
		byID[c.ID] = c
	}
	if catalog == nil {
		catalog = StaticCatalog(model.DefaultEquipment())
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Dispatcher{
		cfg:     cfg,
		carts:   carts,
		byID:    byID,
		queue:   NewQueue(),
		active:  make(map[string]*inFlight),
		catalog: catalog,
		rng:     rng,
		bus:     bus,
		log:     logger.OrNop(log),
		now:     time.Now,
	}, nil
}

// SetTick records the current simulation step for delivery timing.
func (d *Dispatcher) SetTick(t uint64) { d.tick = t }

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

// Pool exposes the live carts in registration order for the tick driver.
func (d *Dispatcher) Pool() []*model.Cart { return d.carts }

// Carts returns copies of every cart in registration order.
func (d *Dispatcher) Carts() []model.Cart {
	out := make([]model.Cart, len(d.carts))
	for i, c := range d.carts {
		out[i] = c.Clone()
	}
	return out
}

// Cart returns a copy of the cart with the given id.
func (d *Dispatcher) Cart(id string) (model.Cart, bool) {
	c, ok := d.byID[id]
	if !ok {
		return model.Cart{}, false
	}
	return c.Clone(), true
}

// Pending returns the queued deliveries, oldest first.
func (d *Dispatcher) Pending() []model.Delivery { return d.queue.List() }

// PendingCount returns the queue length.
func (d *Dispatcher) PendingCount() int { return d.queue.Len() }

// Active returns the deliveries currently carried, in cart priority order.
func (d *Dispatcher) Active() []model.Delivery {
	out := make([]model.Delivery, 0, len(d.active))
	for _, c := range d.carts {
		if f, ok := d.active[c.ID]; ok {
			out = append(out, *f.delivery)
		}
	}
	return out
}

// ActiveFor returns the delivery carried by a cart.
func (d *Dispatcher) ActiveFor(cartID string) (model.Delivery, bool) {
	f, ok := d.active[cartID]
	if !ok {
		return model.Delivery{}, false
	}
	return *f.delivery, true
}

// History returns the most recent completed or cancelled deliveries,
// oldest first.
func (d *Dispatcher) History() []model.Delivery {
	return append([]model.Delivery(nil), d.history...)
}

// IdleCount returns the number of idle carts.
func (d *Dispatcher) IdleCount() int {
	n := 0
	for _, c := range d.carts {
		if c.IsIdle() {
			n++
		}
	}
	return n
}

func (d *Dispatcher) idleCarts() []*model.Cart {
	var out []*model.Cart
	for _, c := range d.carts {
		if c.IsIdle() {
			out = append(out, c)
		}
	}
	return out
}

// FindAvailableCartByPriority returns the first idle cart in registration order.
func (d *Dispatcher) FindAvailableCartByPriority() (*model.Cart, bool) {
	for _, c := range d.carts {
		if c.IsIdle() {
			return c, true
		}
	}
	return nil, false
}

// AutoDeployCart hands the oldest pending delivery to the highest priority
// idle cart. It reports false, without side effects, when either is missing.
func (d *Dispatcher) AutoDeployCart() bool {
	cart, ok := d.FindAvailableCartByPriority()
	if !ok {
		return false
	}
	del, ok := d.queue.Peek()
	if !ok {
		return false
	}
	if err := d.AssignCartToDelivery(cart, del); err != nil {
		d.log.Errorf("auto deploy delivery %d: %v", del.ID, err)
		return false
	}
	return true
}

// AssignCartToDelivery routes cart through the delivery pickup and dropoff.
// Preconditions are checked before anything changes, so a failed call leaves
// both the cart and the delivery untouched.
func (d *Dispatcher) AssignCartToDelivery(cart *model.Cart, del *model.Delivery) error {
	if cart == nil || del == nil {
		return fmt.Errorf("assign: %w", ErrMissingSelection)
	}
	if d.byID[cart.ID] != cart {
		return fmt.Errorf("assign: %w: %s", ErrUnknownCart, cart.ID)
	}
	if !cart.IsIdle() {
		return fmt.Errorf("assign: %w: %s is %s", ErrCartBusy, cart.ID, cart.Status)
	}
	dest := del.To
	cart.Assign(del.Path(), &model.Cargo{
		ID:          fmt.Sprintf("cargo-%d", del.ID),
		Type:        del.Type,
		DeliveryID:  del.ID,
		Destination: &dest,
	})
	del.Status = model.DeliveryAssigned
	del.AssignedCart = cart.ID
	d.queue.Remove(del.ID)
	d.active[cart.ID] = &inFlight{delivery: del, assignedTick: d.tick}

	deliveriesTotal.WithLabelValues(string(events.DeliveryAssigned), del.Type).Inc()
	d.refreshGauges()
	d.log.Infof("cart %s assigned to delivery %d from %v to %v", cart.ID, del.ID, del.From, del.To)
	d.publishDelivery(events.DeliveryAssigned, del, cart.ID)
	return nil
}

// DeployCart creates one delivery from a random pickup to a random
// warehouse, queues it and dispatches the queue head if a cart is idle. When
// no cart is idle the delivery stays pending and ErrNoAvailableCart is
// returned alongside it.
func (d *Dispatcher) DeployCart() (model.Delivery, error) {
	eq := d.catalog.Equipment()
	wh := d.cfg.Warehouses
	if len(eq) == 0 || len(wh) == 0 {
		return model.Delivery{}, d.reject(CommandDeploy, "", ErrEmptyCatalog)
	}
	from := eq[d.rng.Intn(len(eq))].Position
	to := wh[d.rng.Intn(len(wh))]
	del := d.newDelivery(model.CargoGoods, from, to)
	d.enqueue(del)
	if !d.AutoDeployCart() {
		err := fmt.Errorf("delivery %d left pending: %w", del.ID, ErrNoAvailableCart)
		return *del, d.reject(CommandDeploy, "", err)
	}
	return *del, nil
}

// DeployAllCarts queues up to BulkMax deliveries, one per idle cart, and
// dispatches until carts or deliveries run out. It returns the number of
// carts set in motion.
func (d *Dispatcher) DeployAllCarts() (int, error) {
	idle := d.IdleCount()
	if idle == 0 {
		return 0, d.reject(CommandDeployAll, "", ErrNoAvailableCart)
	}
	n := d.cfg.BulkMax
	if idle < n {
		n = idle
	}
	for i := 0; i < n; i++ {
		off := float64(i * 50)
		from := model.Pos(math.Min(600+off, d.cfg.GridMax), math.Min(100+off, d.cfg.GridMax))
		to := model.Pos(math.Min(700+off, d.cfg.GridMax), math.Min(500+off, d.cfg.GridMax))
		d.enqueue(d.newDelivery(model.CargoGoods, from, to))
	}
	deployed := 0
	for d.AutoDeployCart() {
		deployed++
	}
	d.log.Infof("bulk deploy: %d deliveries created, %d carts dispatched", n, deployed)
	return deployed, nil
}

// RecallAllCarts sends every cart back to its start coordinate. Deliveries
// in flight are cancelled; queued deliveries stay pending.
func (d *Dispatcher) RecallAllCarts() int {
	for _, c := range d.carts {
		if f, ok := d.active[c.ID]; ok {
			d.finish(c.ID, f, model.DeliveryCancelled)
		}
		c.Recall(c.Start)
		d.publishCart(events.CartRecalled, c, nil)
	}
	d.refreshGauges()
	d.log.Infof("recalled %d carts", len(d.carts))
	return len(d.carts)
}

// SendGridCommand moves an idle cart straight to a coordinate outside the
// delivery flow. Checks run in order: selection, bounds, cart lookup, idle.
func (d *Dispatcher) SendGridCommand(cmd GridCommand) error {
	if cmd.CartID == "" || cmd.X == nil || cmd.Y == nil {
		return d.reject(CommandGrid, cmd.CartID, ErrMissingSelection)
	}
	target := model.Pos(*cmd.X, *cmd.Y)
	if !target.InBounds(d.cfg.GridMin, d.cfg.GridMax) {
		return d.reject(CommandGrid, cmd.CartID, fmt.Errorf("target %v: %w [%g, %g]", target, ErrInvalidCoordinate, d.cfg.GridMin, d.cfg.GridMax))
	}
	cart, ok := d.byID[cmd.CartID]
	if !ok {
		return d.reject(CommandGrid, cmd.CartID, fmt.Errorf("%w: %s", ErrUnknownCart, cmd.CartID))
	}
	if !cart.IsIdle() {
		return d.reject(CommandGrid, cmd.CartID, fmt.Errorf("%w: %s is %s", ErrCartBusy, cart.ID, cart.Status))
	}
	cart.Assign([]model.GridPosition{target}, &model.Cargo{
		ID:          "manual-" + uuid.NewString(),
		Type:        model.CargoManual,
		Destination: &target,
	})
	d.refreshGauges()
	d.log.Infof("cart %s manually sent to %v", cart.ID, target)
	d.publishCart(events.CartManual, cart, cart.Cargo)
	return nil
}

// GenerateContinuousTasks gives every idle cart a finished goods run from
// the equipment at its index to a warehouse, bounded by the catalog size.
// Nothing happens while the queue already holds MaxPendingForGeneration
// deliveries. It returns the number of deliveries created.
func (d *Dispatcher) GenerateContinuousTasks() int {
	idle := d.idleCarts()
	if len(idle) == 0 || d.queue.Len() >= d.cfg.MaxPendingForGeneration {
		return 0
	}
	eq := d.catalog.Equipment()
	wh := d.cfg.Warehouses
	if len(wh) == 0 {
		return 0
	}
	created := 0
	for i, cart := range idle {
		if i >= len(eq) {
			break
		}
		del := d.newDelivery(model.CargoFinishedGoods, eq[i].Position, wh[i%len(wh)])
		d.enqueue(del)
		if err := d.AssignCartToDelivery(cart, del); err != nil {
			d.log.Errorf("continuous delivery %d: %v", del.ID, err)
			continue
		}
		created++
	}
	if created > 0 {
		d.log.Debugw("continuous generation", map[string]any{"created": created, "pending": d.queue.Len()})
	}
	return created
}

// TrackProgress marks the delivery carried by cart in progress once the
// pickup waypoint is behind it.
func (d *Dispatcher) TrackProgress(cart *model.Cart) {
	f, ok := d.active[cart.ID]
	if !ok || f.delivery.Status != model.DeliveryAssigned || cart.PathIndex < 1 {
		return
	}
	f.delivery.Status = model.DeliveryInProgress
	deliveriesTotal.WithLabelValues(string(events.DeliveryPickedUp), f.delivery.Type).Inc()
	d.publishDelivery(events.DeliveryPickedUp, f.delivery, cart.ID)
}

// CompleteDelivery closes the delivery carried by cartID.
func (d *Dispatcher) CompleteDelivery(cartID string) (model.Delivery, bool) {
	f, ok := d.active[cartID]
	if !ok {
		return model.Delivery{}, false
	}
	d.finish(cartID, f, model.DeliveryCompleted)
	return *f.delivery, true
}

// Reset parks every cart idle at its start coordinate and cancels all
// queued and in-flight deliveries. Delivery ids keep increasing.
func (d *Dispatcher) Reset() {
	for _, c := range d.carts {
		if f, ok := d.active[c.ID]; ok {
			d.finish(c.ID, f, model.DeliveryCancelled)
		}
		c.Reset()
		c.Position = c.Start
	}
	for _, del := range d.queue.Clear() {
		del.Status = model.DeliveryCancelled
		del.CompletedAt = d.now()
		d.remember(*del)
		d.publishDelivery(events.DeliveryCancelled, del, "")
	}
	d.refreshGauges()
}

func (d *Dispatcher) finish(cartID string, f *inFlight, status model.DeliveryStatus) {
	delete(d.active, cartID)
	f.delivery.Status = status
	f.delivery.CompletedAt = d.now()
	action := events.DeliveryCompleted
	if status == model.DeliveryCancelled {
		action = events.DeliveryCancelled
	} else if d.tick >= f.assignedTick {
		deliveryTicks.Observe(float64(d.tick - f.assignedTick))
	}
	deliveriesTotal.WithLabelValues(string(action), f.delivery.Type).Inc()
	d.remember(*f.delivery)
	d.log.Infof("delivery %d %s by cart %s", f.delivery.ID, status, cartID)
	d.publishDelivery(action, f.delivery, cartID)
}

func (d *Dispatcher) remember(del model.Delivery) {
	d.history = append(d.history, del)
	if over := len(d.history) - d.cfg.HistorySize; over > 0 {
		d.history = append(d.history[:0:0], d.history[over:]...)
	}
}

func (d *Dispatcher) newDelivery(typ string, from, to model.GridPosition) *model.Delivery {
	d.nextID++
	return &model.Delivery{
		ID:        d.nextID,
		Type:      typ,
		From:      from,
		To:        to,
		Status:    model.DeliveryPending,
		CreatedAt: d.now(),
	}
}

func (d *Dispatcher) enqueue(del *model.Delivery) {
	d.queue.Enqueue(del)
	deliveriesTotal.WithLabelValues(string(events.DeliveryCreated), del.Type).Inc()
	d.refreshGauges()
	d.publishDelivery(events.DeliveryCreated, del, "")
}

func (d *Dispatcher) reject(command, cartID string, err error) error {
	commandRejections.WithLabelValues(command, Reason(err)).Inc()
	d.log.Warnf("%s command rejected: %v", command, err)
	if d.bus != nil {
		d.bus.Publish(events.CommandRejectedEvent{Command: command, CartID: cartID, Err: err, Time: d.now()})
	}
	return err
}

func (d *Dispatcher) refreshGauges() {
	pendingGauge.Set(float64(d.queue.Len()))
	idleCartsGauge.Set(float64(d.IdleCount()))
}

func (d *Dispatcher) publishDelivery(action events.DeliveryAction, del *model.Delivery, cartID string) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(events.DeliveryEvent{Action: action, Delivery: *del, CartID: cartID, Time: d.now()})
}

func (d *Dispatcher) publishCart(action events.CartAction, c *model.Cart, cargo *model.Cargo) {
	if d.bus == nil {
		return
	}
	var cp *model.Cargo
	if cargo != nil {
		v := *cargo
		cp = &v
	}
	d.bus.Publish(events.CartEvent{Action: action, Cart: c.Clone(), Cargo: cp, Tick: d.tick, Time: d.now()})
}
