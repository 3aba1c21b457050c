package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/entities"
	"github.com/tabletalk/tabletalk/domain/repositories"
	"github.com/tabletalk/tabletalk/internal/eventstore"
	"github.com/tabletalk/tabletalk/internal/realtime"
	"github.com/tabletalk/tabletalk/internal/resolver"
)

// Controller errors
var (
	ErrSeatOrderInProgress = errors.New("a seat order is already being built")
	ErrSessionOtherSeat    = errors.New("a voice session is active for a different seat")
	ErrNoSeatOrder         = errors.New("no seat order in progress")
	ErrSubmissionInFlight  = errors.New("a submission is already in flight")
)

// Prompt is the actionable next step surfaced to the operator. Every fatal
// path ends in one; a kiosk must never be left dead but apparently listening.
type Prompt string

const (
	PromptNone         Prompt = ""
	PromptSeatComplete Prompt = "seat_complete"  // add next seat or finish table
	PromptRetrySubmit  Prompt = "retry_submit"   // submission failed, cart preserved
	PromptReconnect    Prompt = "reconnect"      // voice session failed, start fresh
)

// NoticeItemsNotUnderstood is the single consolidated notice shown when an
// entire detection batch resolves to nothing.
const NoticeItemsNotUnderstood = "items not understood"

// captionGrace is how long a final transcript stays on screen before the
// live caption clears.
const captionGrace = 2 * time.Second

// Transport is the controller's view of one realtime voice session. The
// controller drives lifecycle through these calls; events flow back only
// through the Raw channel, never through callbacks into the controller.
type Transport interface {
	Connect(ctx context.Context, cred *entities.SessionCredential) error
	SendAudio(frame []byte) error
	Close() error
	State() realtime.State
	Err() error
	Raw() <-chan realtime.RawMessage
	Done() <-chan struct{}
}

// TransportFactory creates a fresh transport for each voice session.
// Transports are single-use; a failed session is never redialed.
type TransportFactory func() Transport

// OrderSessionController owns per-seat cart state, the live transcript
// display, submission, and the multi-seat workflow for one physical device.
// All mutations, whether from detection events or operator edits, are
// serialized through one mutex and applied in arrival order.
type OrderSessionController struct {
	logger       *zap.Logger
	credIssuer   repositories.CredentialIssuer
	catalogRepo  repositories.CatalogRepository
	orderCreator repositories.OrderCreator
	newTransport TransportFactory
	interpreter  *realtime.Interpreter
	audit        *eventstore.Store // optional
	restaurantID string

	mu         sync.Mutex
	restaurant *entities.Restaurant
	run        *entities.TableOrderingRun
	seatOrder  *entities.SeatOrder
	resolver   *resolver.Resolver
	transport  Transport
	sessionID  string

	caption    string
	captionSeq int

	unmatched []entities.DetectedItem
	notice    string

	submitting bool
	prompt     Prompt
}

// NewOrderSessionController wires a controller for one restaurant
func NewOrderSessionController(
	restaurantID string,
	credIssuer repositories.CredentialIssuer,
	catalogRepo repositories.CatalogRepository,
	orderCreator repositories.OrderCreator,
	newTransport TransportFactory,
	audit *eventstore.Store,
	logger *zap.Logger,
) *OrderSessionController {
	return &OrderSessionController{
		logger:       logger,
		credIssuer:   credIssuer,
		catalogRepo:  catalogRepo,
		orderCreator: orderCreator,
		newTransport: newTransport,
		interpreter:  realtime.NewInterpreter(logger),
		audit:        audit,
		restaurantID: restaurantID,
	}
}

// StartSeat opens a new voice session for one seat of a table. It mints a
// fresh credential, snapshots the catalog for the resolver, and connects the
// transport. Fails without partial state when any setup step fails.
func (c *OrderSessionController) StartSeat(ctx context.Context, tableID string, seatNumber int) error {
	c.mu.Lock()
	if c.seatOrder != nil && c.seatOrder.Status == entities.SeatOrderStatusBuilding {
		c.mu.Unlock()
		return ErrSeatOrderInProgress
	}
	if c.transport != nil && c.transport.State() == realtime.StateActive {
		c.mu.Unlock()
		return ErrSessionOtherSeat
	}
	c.mu.Unlock()

	cred, err := c.credIssuer.CreateSession(ctx, c.restaurantID)
	if err != nil {
		return fmt.Errorf("failed to mint session credential: %w", err)
	}

	restaurant, err := c.catalogRepo.GetRestaurant(ctx, c.restaurantID)
	if err != nil {
		return fmt.Errorf("failed to load restaurant: %w", err)
	}
	catalog, err := c.catalogRepo.GetCatalog(ctx, c.restaurantID)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	transport := c.newTransport()
	if err := transport.Connect(ctx, cred); err != nil {
		c.mu.Lock()
		c.prompt = PromptReconnect
		c.mu.Unlock()
		return fmt.Errorf("failed to connect voice session: %w", err)
	}

	sessionID := uuid.NewString()

	c.mu.Lock()
	c.restaurant = restaurant
	if c.run == nil || c.run.TableID != tableID {
		c.run = entities.NewTableOrderingRun(tableID)
	}
	c.seatOrder = entities.NewSeatOrder(tableID, seatNumber)
	c.resolver = resolver.New(catalog, c.logger)
	c.transport = transport
	c.sessionID = sessionID
	c.caption = ""
	c.unmatched = nil
	c.notice = ""
	c.prompt = PromptNone
	c.mu.Unlock()

	go c.consumeEvents(sessionID, transport)

	c.logger.Info("Seat started",
		zap.String("tableID", tableID),
		zap.Int("seat", seatNumber),
		zap.String("sessionID", sessionID))
	return nil
}

// consumeEvents pumps normalized events into the controller until the
// session ends, then surfaces a reconnect prompt if it ended in failure.
func (c *OrderSessionController) consumeEvents(sessionID string, transport Transport) {
	for event := range c.interpreter.Run(transport.Raw()) {
		c.handleEvent(sessionID, event)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != sessionID {
		return
	}
	if err := transport.Err(); err != nil {
		// Cart items from prior confirmed detections are preserved; only
		// in-flight transcript state is discarded.
		c.caption = ""
		c.prompt = PromptReconnect
		c.logger.Warn("Voice session ended in failure",
			zap.String("sessionID", sessionID),
			zap.Error(err))
	}
}

func (c *OrderSessionController) handleEvent(sessionID string, event realtime.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != sessionID {
		return // stale session, already replaced
	}

	switch event.Kind {
	case realtime.EventTranscriptDelta:
		c.caption = event.Text
		c.captionSeq++

	case realtime.EventTranscriptFinal:
		c.caption = event.Text
		c.captionSeq++
		seq := c.captionSeq
		time.AfterFunc(captionGrace, func() {
			c.mu.Lock()
			if c.captionSeq == seq {
				c.caption = ""
			}
			c.mu.Unlock()
		})
		c.appendAudit(event.UtteranceID, eventstore.TypeTranscriptFinal, map[string]string{"text": event.Text})

	case realtime.EventOrderItemsDetected:
		if c.seatOrder == nil || c.resolver == nil {
			return
		}
		result := c.resolver.Resolve(event.Items)
		c.applyResolvedLocked(result)
		eventType := eventstore.TypeItemsDetected
		if len(result.Accepted) == 0 && len(result.Unmatched) > 0 {
			eventType = eventstore.TypeItemsUnmatched
		}
		c.appendAudit(event.UtteranceID, eventType, map[string]interface{}{
			"accepted":  len(result.Accepted),
			"unmatched": len(result.Unmatched),
		})
	}
}

// ApplyDetectedItems applies a resolved detection batch to the current seat
// order: accepted items are appended to the cart, unmatched items are held
// for human correction and never auto-submitted.
func (c *OrderSessionController) ApplyDetectedItems(result resolver.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seatOrder == nil {
		return ErrNoSeatOrder
	}
	c.applyResolvedLocked(result)
	return nil
}

func (c *OrderSessionController) applyResolvedLocked(result resolver.Result) {
	// A batch landing after submission started cannot join a cart already on
	// its way out. Hold it for human correction instead of dropping it.
	if c.seatOrder == nil || c.seatOrder.Status != entities.SeatOrderStatusBuilding {
		for _, item := range result.Accepted {
			c.unmatched = append(c.unmatched, entities.DetectedItem{
				Name:      item.Name,
				Modifiers: item.Modifications,
				Quantity:  item.Quantity,
			})
		}
		c.unmatched = append(c.unmatched, result.Unmatched...)
		return
	}

	for _, item := range result.Accepted {
		c.seatOrder.AddItem(item)
	}
	c.unmatched = append(c.unmatched, result.Unmatched...)

	// One consolidated notice per fully-unmatched batch; per-item errors
	// would interrupt the spoken flow repeatedly.
	if len(result.Accepted) == 0 && len(result.Unmatched) > 0 {
		c.notice = NoticeItemsNotUnderstood
	}
}

// RemoveItem removes a pending cart item before submission
func (c *OrderSessionController) RemoveItem(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seatOrder == nil {
		return ErrNoSeatOrder
	}
	return c.seatOrder.RemoveItem(index)
}

// SendAudio forwards one captured microphone frame to the active transport
func (c *OrderSessionController) SendAudio(frame []byte) error {
	c.mu.Lock()
	transport := c.transport
	c.mu.Unlock()
	if transport == nil {
		return ErrNoSeatOrder
	}
	return transport.SendAudio(frame)
}

// SubmitSeatOrder validates and submits the current cart. Exactly one
// order-creation call is made per attempt; a re-entrant call while one is in
// flight is rejected, not queued. On failure the cart is preserved unchanged
// so the operator can retry without the guest re-speaking the order.
func (c *OrderSessionController) SubmitSeatOrder(ctx context.Context) (*repositories.CreatedOrder, error) {
	c.mu.Lock()
	if c.seatOrder == nil {
		c.mu.Unlock()
		return nil, ErrNoSeatOrder
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if err := c.seatOrder.Validate(); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("seat order not submittable: %w", err)
	}

	order := c.seatOrder
	restaurant := c.restaurant
	subtotal := order.SubtotalCents()
	tax := restaurant.TaxCents(subtotal)

	req := repositories.CreateOrderRequest{
		TableLabel:    order.TableID,
		SeatNumber:    order.SeatNumber,
		Items:         make([]repositories.OrderLineItem, 0, len(order.Items)),
		CustomerLabel: fmt.Sprintf("Seat %d", order.SeatNumber),
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TipCents:      0,
		TotalCents:    subtotal + tax,
		SourceChannel: "voice",
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, repositories.OrderLineItem{
			CatalogItemID:  item.CatalogItemID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			Modifications:  item.Modifications,
		})
	}

	c.submitting = true
	order.Status = entities.SeatOrderStatusSubmitted
	sessionID := c.sessionID
	heldBefore := len(c.unmatched)
	c.mu.Unlock()

	created, err := c.orderCreator.CreateOrder(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		// Preserve the cart; retry is operator-initiated, never automatic.
		order.Status = entities.SeatOrderStatusBuilding
		c.prompt = PromptRetrySubmit
		c.logger.Error("Order submission failed",
			zap.String("tableID", order.TableID),
			zap.Int("seat", order.SeatNumber),
			zap.Error(err))
		return nil, fmt.Errorf("order submission failed: %w", err)
	}

	order.Status = entities.SeatOrderStatusAcknowledged
	c.run.MarkSeatOrdered(order.SeatNumber)
	c.seatOrder = nil
	// Detections held while the order call was in flight survive the submit
	c.unmatched = c.unmatched[heldBefore:]
	if len(c.unmatched) == 0 {
		c.notice = ""
	}
	c.prompt = PromptSeatComplete

	if c.transport != nil {
		c.transport.Close()
	}

	c.appendAudit("", eventstore.TypeSubmission, map[string]interface{}{
		"order_id": created.ID,
		"seat":     order.SeatNumber,
		"total":    req.TotalCents,
	})

	c.logger.Info("Seat order submitted",
		zap.String("sessionID", sessionID),
		zap.String("orderID", created.ID),
		zap.Int("seat", order.SeatNumber),
		zap.Int64("totalCents", req.TotalCents))

	return created, nil
}

// FinishTable closes any active voice session, ends the table run, and
// returns control to table selection.
func (c *OrderSessionController) FinishTable() {
	c.mu.Lock()
	transport := c.transport
	c.transport = nil
	c.run = nil
	c.seatOrder = nil
	c.resolver = nil
	c.sessionID = ""
	c.caption = ""
	c.unmatched = nil
	c.notice = ""
	c.prompt = PromptNone
	c.mu.Unlock()

	if transport != nil {
		transport.Close()
	}
	c.logger.Info("Table finished")
}

// Items returns a copy of the current cart
func (c *OrderSessionController) Items() []entities.ResolvedOrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seatOrder == nil {
		return nil
	}
	items := make([]entities.ResolvedOrderItem, len(c.seatOrder.Items))
	copy(items, c.seatOrder.Items)
	return items
}

// UnmatchedItems returns the detections awaiting human correction
func (c *OrderSessionController) UnmatchedItems() []entities.DetectedItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]entities.DetectedItem, len(c.unmatched))
	copy(items, c.unmatched)
	return items
}

// Notice returns and clears the consolidated resolution notice
func (c *OrderSessionController) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	notice := c.notice
	c.notice = ""
	return notice
}

// Caption returns the live transcript caption
func (c *OrderSessionController) Caption() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caption
}

// Prompt returns the pending operator prompt
func (c *OrderSessionController) Prompt() Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// OrderedSeats reports which seats of the current table run have ordered
func (c *OrderSessionController) OrderedSeats() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return nil
	}
	return c.run.OrderedSeats()
}

func (c *OrderSessionController) appendAudit(utteranceID, eventType string, payload interface{}) {
	if c.audit == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	sessionID := c.sessionID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.audit.Append(ctx, sessionID, utteranceID, eventType, data); err != nil {
			c.logger.Warn("Failed to record audit event", zap.Error(err))
		}
	}()
}
