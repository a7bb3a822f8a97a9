package agent

import (
	"context"

	json "github.com/json-iterator/go"

	"github.com/solarops/bua/api/schemas"
)

// buildCallTable maps the action names the model emits to driver methods.
// Arguments arrive as a flat JSON object; the "type" discriminator on
// computer_call payloads is ignored by the per-entry decoders. Names with no
// entry fall through to the caller's no-match handling.
func (c *Controller) buildCallTable() map[string]callHandler {
	table := map[string]callHandler{
		"click": func(ctx context.Context, raw []byte) error {
			var p struct {
				X      int    `json:"x"`
				Y      int    `json:"y"`
				Button string `json:"button"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			if p.Button == "" {
				p.Button = "left"
			}
			return c.computer.Click(ctx, p.X, p.Y, p.Button)
		},
		"double_click": func(ctx context.Context, raw []byte) error {
			var p struct {
				X int `json:"x"`
				Y int `json:"y"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.computer.DoubleClick(ctx, p.X, p.Y)
		},
		"scroll": func(ctx context.Context, raw []byte) error {
			var p struct {
				X       int `json:"x"`
				Y       int `json:"y"`
				ScrollX int `json:"scroll_x"`
				ScrollY int `json:"scroll_y"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.computer.Scroll(ctx, p.X, p.Y, p.ScrollX, p.ScrollY)
		},
		"type": func(ctx context.Context, raw []byte) error {
			var p struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.computer.Type(ctx, p.Text)
		},
		"wait": func(ctx context.Context, raw []byte) error {
			p := struct {
				MS int `json:"ms"`
			}{MS: 1000}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.computer.Wait(ctx, p.MS)
		},
		"move": func(ctx context.Context, raw []byte) error {
			var p struct {
				X int `json:"x"`
				Y int `json:"y"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.computer.Move(ctx, p.X, p.Y)
		},
		"keypress": func(ctx context.Context, raw []byte) error {
			var p struct {
				Keys []string `json:"keys"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.computer.Keypress(ctx, p.Keys)
		},
		"drag": func(ctx context.Context, raw []byte) error {
			var p struct {
				Path []schemas.Point `json:"path"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.computer.Drag(ctx, p.Path)
		},
		"screenshot": func(ctx context.Context, raw []byte) error {
			// The observation step screenshots after every call anyway.
			_, err := c.computer.Screenshot(ctx)
			return err
		},
	}

	if c.browser != nil {
		table["goto"] = func(ctx context.Context, raw []byte) error {
			var p struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			return c.browser.Navigate(ctx, p.URL)
		}
		table["back"] = func(ctx context.Context, raw []byte) error {
			return c.browser.NavigateBack(ctx)
		}
		table["forward"] = func(ctx context.Context, raw []byte) error {
			return c.browser.NavigateForward(ctx)
		}
	}

	return table
}
