// Package config loads the demo and renderer settings from TOML and watches the file for changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned by Validate and wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Duration is a time.Duration written as a Go duration string such as "500ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Renderer holds the FrameRenderer settings.
type Renderer struct {
	// OutputFormat is "bgra8unorm-srgb" or "rgba8unorm-srgb".
	OutputFormat string `toml:"output_format"`
	// ClearColor is the linear RGBA the target is cleared to each frame.
	ClearColor [4]float64 `toml:"clear_color"`
	// ParallelConvertThreshold is the coverage pixel count from which the system texture conversion is split across workers.
	ParallelConvertThreshold int `toml:"parallel_convert_threshold"`
	// Workers is the conversion worker count, 0 for the default.
	Workers int `toml:"workers"`
}

// Window holds the window settings.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
	// FrameLimit caps the render loop in frames per second, 0 for uncapped.
	FrameLimit float64 `toml:"frame_limit"`
}

// Profiler holds the frame statistics settings.
type Profiler struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// Log holds the logging settings.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// Config is the root of the configuration file.
type Config struct {
	Renderer Renderer `toml:"renderer"`
	Window   Window   `toml:"window"`
	Profiler Profiler `toml:"profiler"`
	Log      Log      `toml:"log"`
}

var formats = map[string]wgpu.TextureFormat{
	"bgra8unorm-srgb": wgpu.TextureFormatBGRA8UnormSrgb,
	"rgba8unorm-srgb": wgpu.TextureFormatRGBA8UnormSrgb,
}

// Default returns the configuration used for every field the file leaves out.
func Default() Config {
	return Config{
		Renderer: Renderer{
			OutputFormat:             "bgra8unorm-srgb",
			ClearColor:               [4]float64{0.1, 0.1, 0.1, 1},
			ParallelConvertThreshold: 512 * 512,
		},
		Window: Window{
			Title:  "oxy-ui",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Profiler: Profiler{
			Enabled:  false,
			Interval: Duration{time.Second},
		},
		Log: Log{Level: "info"},
	}
}

// Parse decodes TOML on top of Default and validates the result. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode error or ErrInvalidConfig
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks every field and reports all failures at once.
//
// Returns:
//   - error: nil, or ErrInvalidConfig joined with one error per failing field
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, ok := formats[strings.ToLower(c.Renderer.OutputFormat)]; !ok {
		add("renderer.output_format %q: %v", c.Renderer.OutputFormat, common.ErrUnsupportedOutputFormat)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			add("renderer.clear_color[%d] = %v is outside [0, 1]", i, v)
		}
	}
	if c.Renderer.ParallelConvertThreshold < 0 {
		add("renderer.parallel_convert_threshold must not be negative")
	}
	if c.Renderer.Workers < 0 {
		add("renderer.workers must not be negative")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		add("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.FrameLimit < 0 {
		add("window.frame_limit must not be negative")
	}
	if c.Profiler.Enabled && c.Profiler.Interval.Duration <= 0 {
		add("profiler.interval must be positive")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	return errors.Join(errs...)
}

// OutputFormat maps the configured format name to the wgpu texture format.
//
// Returns:
//   - wgpu.TextureFormat: the render target format
//   - error: common.ErrUnsupportedOutputFormat for unknown names
func (c Config) OutputFormat() (wgpu.TextureFormat, error) {
	f, ok := formats[strings.ToLower(c.Renderer.OutputFormat)]
	if !ok {
		return wgpu.TextureFormatUndefined, fmt.Errorf("%w: %q", common.ErrUnsupportedOutputFormat, c.Renderer.OutputFormat)
	}
	return f, nil
}

// ClearColor returns the configured clear color.
func (c Config) ClearColor() *wgpu.Color {
	cc := c.Renderer.ClearColor
	return &wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}
}
