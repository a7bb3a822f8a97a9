package schemas

import (
	"context"
)

// -- UI Driver Capability Interfaces --

// Environment identifies the kind of surface a driver controls. Browser-like
// environments additionally report a current location with every call output.
type Environment string

const (
	EnvBrowser Environment = "browser"
	EnvWindows Environment = "windows"
	EnvMac     Environment = "mac"
	EnvLinux   Environment = "linux"
)

// Computer is the minimal capability surface the agent loop expects from any
// UI-automation driver. It is consumed, never implemented, by the core:
// concrete drivers live behind this boundary. All coordinates are viewport
// pixels.
type Computer interface {
	// Environment reports the kind of surface being driven.
	Environment() Environment
	// Dimensions reports the viewport width and height.
	Dimensions() (width, height int)

	// Screenshot captures the current viewport and returns it base64 encoded.
	Screenshot(ctx context.Context) (string, error)

	Click(ctx context.Context, x, y int, button string) error
	DoubleClick(ctx context.Context, x, y int) error
	Scroll(ctx context.Context, x, y, scrollX, scrollY int) error
	Type(ctx context.Context, text string) error
	Wait(ctx context.Context, ms int) error
	Move(ctx context.Context, x, y int) error
	Keypress(ctx context.Context, keys []string) error
	Drag(ctx context.Context, path []Point) error

	// CurrentURL reports the current location. Only meaningful for
	// browser-like environments.
	CurrentURL(ctx context.Context) (string, error)
}

// Snapshotter is the extended capability of browser drivers that can render
// a structured page snapshot for the model. The turn controller checks for
// it once at construction, not per call.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*PageNode, error)
}

// -- Reasoning Model Client Boundary --

// Tool describes one capability advertised to the model alongside the
// conversation, e.g. the computer-use tool with display dimensions.
type Tool struct {
	Type          string      `json:"type"`
	DisplayWidth  int         `json:"display_width,omitempty"`
	DisplayHeight int         `json:"display_height,omitempty"`
	Environment   Environment `json:"environment,omitempty"`
}

// ModelRequest is one submission of conversation history to the model.
type ModelRequest struct {
	Model      string `json:"model"`
	Input      []Item `json:"input"`
	Tools      []Tool `json:"tools,omitempty"`
	Truncation string `json:"truncation,omitempty"`
}

// ModelResponse is the model's reply: the output items to append to the
// conversation plus token accounting.
type ModelResponse struct {
	Output []Item `json:"output"`
	Usage  *Usage `json:"usage,omitempty"`
}

// ModelClient is the boundary to the reasoning model. Implementations handle
// transport, authentication, and transient-failure retries.
type ModelClient interface {
	CreateResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error)
}
