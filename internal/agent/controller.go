// Package agent implements the conversational turn loop: it submits history
// to the reasoning model, dispatches every output item to the matching
// handler, gates pending safety checks, and decides when a turn is complete.
package agent

import (
	"context"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/solarops/bua/api/schemas"
	"github.com/solarops/bua/internal/action"
	"github.com/solarops/bua/internal/config"
)

// TurnState tracks where the controller is inside one conversational turn.
type TurnState string

const (
	StateCollecting             TurnState = "COLLECTING"
	StateDispatching            TurnState = "DISPATCHING"
	StateAwaitingAcknowledgment TurnState = "AWAITING_ACKNOWLEDGMENT"
	StateTurnComplete           TurnState = "TURN_COMPLETE"
)

// Model flavors. The flavor selects which call-item kinds are valid: browser
// models emit browser_call items with typed action payloads, computer-use
// models emit coordinate-based computer_call items.
const (
	FlavorBrowser     = "browser"
	FlavorComputerUse = "computer-use"
)

// BrowserDriver is the extended capability browser_call items require:
// the coordinate primitives plus page-level navigation, frame-scoped element
// queries, and structured snapshots. It is asserted once at construction,
// never per call.
type BrowserDriver interface {
	schemas.Computer
	schemas.Snapshotter
	action.PageDriver
	action.Scope
}

// callHandler executes one named driver method from a raw argument payload.
type callHandler func(ctx context.Context, args []byte) error

// Controller owns one conversation's turn loop. It is single-threaded and
// cooperative: at most one model call or one action executes at a time, and
// no state is shared across conversations.
type Controller struct {
	cfg       config.ModelConfig
	logger    *zap.Logger
	model     schemas.ModelClient
	computer  schemas.Computer
	browser   BrowserDriver // nil when the driver lacks browser capability
	registry  *action.Registry
	gate      *SafetyGate
	blocklist *Blocklist
	tools     []schemas.Tool
	calls     map[string]callHandler
	verbose   bool

	state  TurnState
	usages []schemas.Usage
}

// NewController wires a turn controller for one conversation. A
// browser-flavor model requires a driver with the full BrowserDriver
// capability; the mismatch is rejected here rather than surfacing later as a
// per-call failure.
func NewController(
	cfg config.ModelConfig,
	safety config.SafetyConfig,
	model schemas.ModelClient,
	computer schemas.Computer,
	acknowledge AcknowledgeFunc,
	logger *zap.Logger,
) (*Controller, error) {
	if model == nil {
		return nil, errors.New("model client is required")
	}
	if computer == nil {
		return nil, errors.New("computer driver is required")
	}

	c := &Controller{
		cfg:       cfg,
		logger:    logger.Named("agent"),
		model:     model,
		computer:  computer,
		registry:  action.NewRegistry(),
		gate:      NewSafetyGate(acknowledge, logger),
		blocklist: NewBlocklist(safety.BlockedHosts),
		state:     StateCollecting,
		verbose:   true,
	}

	if browser, ok := computer.(BrowserDriver); ok {
		c.browser = browser
	}
	if cfg.Flavor == FlavorBrowser && c.browser == nil {
		return nil, &ContractMismatchError{
			ItemType: string(schemas.ItemBrowserCall),
			Flavor:   cfg.Flavor,
			Detail:   "driver does not implement the browser capability",
		}
	}

	width, height := computer.Dimensions()
	c.tools = []schemas.Tool{{
		Type:          "computer-preview",
		DisplayWidth:  width,
		DisplayHeight: height,
		Environment:   computer.Environment(),
	}}
	c.calls = c.buildCallTable()

	return c, nil
}

// SetVerbose controls whether model messages and execution progress are
// logged as the turn runs.
func (c *Controller) SetVerbose(v bool) { c.verbose = v }

// State reports the controller's current turn state.
func (c *Controller) State() TurnState { return c.state }

// Usages returns the accumulated token usage of every model call made so
// far in this conversation.
func (c *Controller) Usages() []schemas.Usage { return c.usages }

// RunTurn drives one conversational turn: it submits the prior history plus
// all newly accumulated items to the model, dispatches each output item in
// arrival order, and repeats until the most recently appended item is an
// assistant message. The returned slice holds every item appended during the
// turn, including the partial tail when an error aborts it.
func (c *Controller) RunTurn(ctx context.Context, history []schemas.Item) ([]schemas.Item, error) {
	var newItems []schemas.Item

	for !turnComplete(newItems) {
		if err := ctx.Err(); err != nil {
			return newItems, err
		}

		c.state = StateCollecting
		input := make([]schemas.Item, 0, len(history)+len(newItems))
		input = append(input, history...)
		input = append(input, newItems...)

		resp, err := c.model.CreateResponse(ctx, schemas.ModelRequest{
			Model:      c.cfg.Name,
			Input:      input,
			Tools:      c.tools,
			Truncation: c.cfg.Truncation,
		})
		if err != nil {
			return newItems, fmt.Errorf("model call failed: %w", err)
		}
		if len(resp.Output) == 0 {
			return newItems, errors.New("model returned no output items")
		}
		if resp.Usage != nil {
			c.usages = append(c.usages, *resp.Usage)
		}

		// The whole response is appended before any item is dispatched, so
		// call outputs land after every model item. A response that carries a
		// call after (or alongside) an assistant message therefore leaves the
		// call output as the tail and the turn keeps going.
		newItems = append(newItems, resp.Output...)
		for _, item := range resp.Output {
			c.state = StateDispatching
			outputs, err := c.handleItem(ctx, item)
			if err != nil {
				return newItems, err
			}
			newItems = append(newItems, outputs...)
		}
	}

	c.state = StateTurnComplete
	return newItems, nil
}

// turnComplete reports whether the most recently appended item terminates
// the turn.
func turnComplete(items []schemas.Item) bool {
	return len(items) > 0 && items[len(items)-1].Role == schemas.RoleAssistant
}

// handleItem dispatches one model output item and returns the items to
// append in response.
func (c *Controller) handleItem(ctx context.Context, item schemas.Item) ([]schemas.Item, error) {
	switch item.Type {
	case schemas.ItemMessage:
		if c.verbose {
			c.logger.Info("Model message.", zap.String("text", item.Text()))
		}
		return nil, nil

	case schemas.ItemFunctionCall:
		return c.handleFunctionCall(ctx, item)

	case schemas.ItemBrowserCall:
		return c.handleBrowserCall(ctx, item)

	case schemas.ItemComputerCall:
		return c.handleComputerCall(ctx, item)

	default:
		// Call outputs and prior-turn echoes require no handling.
		return nil, nil
	}
}

// handleFunctionCall invokes the named driver method when one exists and
// always emits a synthetic success output correlated to the call.
//
// Real failures are logged but not propagated to the model; the demo
// contract hard-codes "success" here. Known limitation, preserved
// deliberately and pinned by tests.
func (c *Controller) handleFunctionCall(ctx context.Context, item schemas.Item) ([]schemas.Item, error) {
	if c.verbose {
		c.logger.Info("Function call.", zap.String("name", item.Name), zap.ByteString("args", item.Arguments))
	}

	if handler, ok := c.calls[item.Name]; ok {
		if err := handler(ctx, item.Arguments); err != nil {
			c.logger.Warn("Function call failed; reporting synthetic success.",
				zap.String("name", item.Name), zap.Error(err))
		}
	} else {
		c.logger.Warn("Function call has no matching driver method.", zap.String("name", item.Name))
	}

	return []schemas.Item{{
		Type:   schemas.ItemFunctionCallOutput,
		CallID: item.CallID,
		Output: &schemas.CallOutput{Type: "text", Text: "success"},
	}}, nil
}

// handleBrowserCall parses the typed action payload and executes it. A
// completion or help action terminates the turn with an assistant message;
// interaction actions resolve their locator first; every executed action is
// followed by a screenshot, a structured snapshot, and a blocklist check on
// the post-action location.
func (c *Controller) handleBrowserCall(ctx context.Context, item schemas.Item) ([]schemas.Item, error) {
	if c.cfg.Flavor != FlavorBrowser {
		return nil, &ContractMismatchError{
			ItemType: string(schemas.ItemBrowserCall),
			Flavor:   c.cfg.Flavor,
			Detail:   "browser_call items require a browser-flavor model",
		}
	}

	a, err := c.registry.Parse(item.Action)
	if err != nil {
		return nil, err
	}

	switch v := a.(type) {
	case *action.CompletionAction:
		c.logger.Info("Task completed.",
			zap.Bool("success", v.Success),
			zap.String("answer", v.Answer))
		return []schemas.Item{schemas.AssistantMessage(v.Answer)}, nil

	case *action.HelpAction:
		c.logger.Info("Agent escalated for help.", zap.String("reason", v.Reason))
		return []schemas.Item{schemas.AssistantMessage(v.Reason)}, nil

	case action.InteractionAction:
		id, sel := v.Target()
		if sel == nil {
			return nil, &action.ValidationError{
				Field:  "selectors",
				Reason: fmt.Sprintf("element %s carries no resolved selectors", id),
			}
		}
		if c.verbose {
			c.logger.Info(action.ExecutionMessage(a, false))
		}
		el, err := action.Resolve(ctx, c.logger, c.browser, *sel)
		if err != nil {
			return nil, err
		}
		if err := v.ExecuteElement(ctx, c.browser, el); err != nil {
			return nil, fmt.Errorf("executing %s: %w", a.Type(), err)
		}

	case action.BrowserAction:
		if c.verbose {
			c.logger.Info(action.ExecutionMessage(a, false))
		}
		if err := v.Execute(ctx, c.browser); err != nil {
			return nil, fmt.Errorf("executing %s: %w", a.Type(), err)
		}

	default:
		return nil, &action.ValidationError{Tag: a.Type(), Reason: "variant has no execution path"}
	}

	output, err := c.observeBrowser(ctx, item.CallID)
	if err != nil {
		return nil, err
	}
	if c.verbose {
		c.logger.Info(action.ExecutionMessage(a, true))
	}
	return []schemas.Item{output}, nil
}

// observeBrowser captures the post-action observation for a browser call:
// screenshot, structured snapshot, and the current location, which is also
// run through the blocklist.
func (c *Controller) observeBrowser(ctx context.Context, callID string) (schemas.Item, error) {
	shot, err := c.browser.Screenshot(ctx)
	if err != nil {
		return schemas.Item{}, fmt.Errorf("capturing screenshot: %w", err)
	}
	snap, err := c.browser.Snapshot(ctx)
	if err != nil {
		return schemas.Item{}, fmt.Errorf("capturing page snapshot: %w", err)
	}
	currentURL, err := c.browser.CurrentURL(ctx)
	if err != nil {
		return schemas.Item{}, fmt.Errorf("reading current location: %w", err)
	}
	if err := c.blocklist.Check(currentURL); err != nil {
		return schemas.Item{}, err
	}

	return schemas.Item{
		Type:                     schemas.ItemBrowserCallOutput,
		CallID:                   callID,
		AcknowledgedSafetyChecks: []schemas.SafetyCheck{},
		Output: &schemas.CallOutput{
			Type:       "bua_output",
			ImageURL:   "data:image/png;base64," + shot,
			CurrentURL: currentURL,
			Snapshot:   snap,
		},
	}, nil
}

// handleComputerCall executes a coordinate-based call. Every pending safety
// check must be acknowledged before execution; any rejection aborts the
// turn. The action type and arguments come straight from the payload with no
// registry lookup.
func (c *Controller) handleComputerCall(ctx context.Context, item schemas.Item) ([]schemas.Item, error) {
	if c.cfg.Flavor != FlavorComputerUse {
		return nil, &ContractMismatchError{
			ItemType: string(schemas.ItemComputerCall),
			Flavor:   c.cfg.Flavor,
			Detail:   "computer_call items require a computer-use-flavor model",
		}
	}

	if len(item.PendingSafetyChecks) > 0 {
		c.state = StateAwaitingAcknowledgment
		if err := c.gate.Clear(item.PendingSafetyChecks); err != nil {
			return nil, err
		}
		c.state = StateDispatching
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(item.Action, &head); err != nil {
		return nil, &action.ValidationError{Reason: err.Error()}
	}
	handler, ok := c.calls[head.Type]
	if !ok {
		return nil, &action.ValidationError{Tag: head.Type, Reason: "no matching driver method"}
	}
	if c.verbose {
		c.logger.Info("Computer call.", zap.String("action", head.Type))
	}
	if err := handler(ctx, item.Action); err != nil {
		return nil, fmt.Errorf("executing %s: %w", head.Type, err)
	}

	shot, err := c.computer.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	output := schemas.Item{
		Type:                     schemas.ItemComputerCallOutput,
		CallID:                   item.CallID,
		AcknowledgedSafetyChecks: item.PendingSafetyChecks,
		Output: &schemas.CallOutput{
			Type:     "input_image",
			ImageURL: "data:image/png;base64," + shot,
		},
	}

	if c.computer.Environment() == schemas.EnvBrowser {
		currentURL, err := c.computer.CurrentURL(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading current location: %w", err)
		}
		if err := c.blocklist.Check(currentURL); err != nil {
			return nil, err
		}
		output.Output.CurrentURL = currentURL
	}

	return []schemas.Item{output}, nil
}
