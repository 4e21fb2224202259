package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	catalogRepo "agendabot/database/repository/catalog"
	clientRepo "agendabot/database/repository/client"
	"agendabot/models"
	"agendabot/services/availability"
	"agendabot/services/booking"
	"agendabot/services/resolver"
	"agendabot/utils"
	"agendabot/utils/apperr"

	"go.uber.org/zap"
)

// Conversation is the per-message state tools share: who the tenant and the
// client are. Tools run one at a time, but a timed-out tool may still be
// finishing in the background, hence the mutex.
type Conversation struct {
	Tenant           *models.Tenant
	ClientExternalID string

	mu     sync.Mutex
	client *models.Client
}

func NewConversation(tenant *models.Tenant, clientExternalID string) *Conversation {
	return &Conversation{Tenant: tenant, ClientExternalID: clientExternalID}
}

func (c *Conversation) cachedClient() *models.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

func (c *Conversation) setClient(client *models.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
}

// Dispatcher executes model tool calls against the booking services. It never
// returns an error: every outcome, including panics and timeouts, becomes a
// structured result the model can read.
type Dispatcher struct {
	Resolver        resolver.Resolver
	Availability    availability.Engine
	Booking         booking.Coordinator
	Catalog         catalogRepo.CatalogRepository
	Clients         clientRepo.ClientRepository
	ToolTimeout     time.Duration
	DefaultTimezone string
	Logger          *zap.Logger
	Now             func() time.Time
}

// DispatchAll runs calls in order and returns one result per call.
func (d *Dispatcher) DispatchAll(ctx context.Context, conv *Conversation, calls []models.ToolCall) []models.ToolResult {
	results := make([]models.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, d.Dispatch(ctx, conv, call))
	}
	return results
}

func (d *Dispatcher) Dispatch(ctx context.Context, conv *Conversation, call models.ToolCall) models.ToolResult {
	started := time.Now()
	resp, err := d.run(ctx, conv, call)

	fields := []zap.Field{
		zap.String("company_id", conv.Tenant.ID),
		zap.String("client_id", conv.ClientExternalID),
		zap.String("tool", call.Name),
		zap.Duration("took", time.Since(started)),
	}
	if err != nil {
		d.Logger.Info("tool call failed", append(fields, zap.Error(err))...)
		return models.ToolResult{CallID: call.ID, Name: call.Name, Response: failure(call.Name, err)}
	}
	d.Logger.Debug("tool call succeeded", fields...)

	resp["success"] = true
	return models.ToolResult{CallID: call.ID, Name: call.Name, Response: plain(resp)}
}

func (d *Dispatcher) run(ctx context.Context, conv *Conversation, call models.ToolCall) (map[string]any, error) {
	args, err := decodeArgs(call.Name, call.Args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.ToolTimeout)
	defer cancel()

	done := make(chan toolOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.Logger.Error("tool panicked", zap.String("tool", call.Name), zap.Any("panic", r))
				done <- toolOutcome{err: fmt.Errorf("tool %s panicked: %v", call.Name, r)}
			}
		}()
		resp, err := d.handle(ctx, conv, args)
		done <- toolOutcome{resp: resp, err: err}
	}()

	select {
	case o := <-done:
		if o.err == nil && o.resp == nil {
			o.resp = map[string]any{}
		}
		return o.resp, o.err
	case <-ctx.Done():
		go d.reportLate(conv, call.Name, done)
		if mutatesBookings(call.Name) {
			return nil, apperr.Wrap(apperr.KindTimeout, ctx.Err(),
				"%s did not finish in time and may still complete; call list_appointments before retrying", call.Name)
		}
		return nil, apperr.Wrap(apperr.KindTimeout, ctx.Err(), "%s did not finish in time", call.Name)
	}
}

type toolOutcome struct {
	resp map[string]any
	err  error
}

func mutatesBookings(tool string) bool {
	return tool == ToolCreateAppointment || tool == ToolCancelAppointment
}

// reportLate logs what a timed-out tool finally did. The model was already
// told it timed out.
func (d *Dispatcher) reportLate(conv *Conversation, tool string, done <-chan toolOutcome) {
	o := <-done
	fields := []zap.Field{
		zap.String("company_id", conv.Tenant.ID),
		zap.String("client_id", conv.ClientExternalID),
		zap.String("tool", tool),
	}
	if o.err != nil {
		d.Logger.Info("timed-out tool call finished with error", append(fields, zap.Error(o.err))...)
		return
	}
	d.Logger.Warn("tool call completed after timeout", append(fields, zap.Any("result", o.resp))...)
}

func (d *Dispatcher) handle(ctx context.Context, conv *Conversation, args toolArgs) (map[string]any, error) {
	switch a := args.(type) {
	case *CheckAvailabilityArgs:
		return d.checkAvailability(ctx, conv, a)
	case *CreateAppointmentArgs:
		return d.createAppointment(ctx, conv, a)
	case *ListAppointmentsArgs:
		return d.listAppointments(ctx, conv)
	case *CancelAppointmentArgs:
		return d.cancelAppointment(ctx, conv, a)
	case *GetBusinessInfoArgs:
		return d.businessInfo(ctx, conv)
	case *GetClientProfileArgs:
		return d.clientProfile(ctx, conv, a)
	default:
		return nil, apperr.InvalidArgument("no handler for %T", args)
	}
}

// failure is the result shape for every failed call.
func failure(tool string, err error) map[string]any {
	kind := apperr.KindOf(err)
	msg := "internal error, the operation was not completed"
	if kind != "" {
		msg = apperr.Message(err)
	}
	if errors.Is(err, context.DeadlineExceeded) && kind == "" {
		kind, msg = apperr.KindTimeout, tool+" did not finish in time"
	}
	resp := map[string]any{
		"success": false,
		"tool":    tool,
		"error":   msg,
	}
	if kind != "" {
		resp["error_code"] = string(kind)
	}
	return resp
}

// plain converts a response to JSON-compatible values only (maps, slices of
// any, strings, float64, bools), which is what the model SDK and the
// transcript store accept.
func plain(resp map[string]any) map[string]any {
	b, err := json.Marshal(resp)
	if err != nil {
		return map[string]any{"success": false, "error": "result could not be encoded"}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{"success": false, "error": "result could not be encoded"}
	}
	return out
}

func (d *Dispatcher) location(tenant *models.Tenant) *time.Location {
	return utils.LoadLocation(tenant.Timezone, d.DefaultTimezone)
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
