package engine

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/math"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
	"github.com/spaghettifunk/umbra/engine/renderer/vulkan"
)

// DefaultConfigPath is the file LoadConfig reads when no path is given.
const DefaultConfigPath = "umbra.toml"

type WindowConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting position x axis.
	X uint32 `toml:"x"`
	// Window starting position y axis.
	Y uint32 `toml:"y"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height uint32 `toml:"height"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type RendererSettings struct {
	BindingMode  metadata.BindingMode `toml:"binding_mode"`
	Validation   bool                 `toml:"validation"`
	ShaderDir    string               `toml:"shader_dir"`
	AssetDir     string               `toml:"asset_dir"`
	ClearColor   [4]float32           `toml:"clear_color"`
	MaxMaterials uint32               `toml:"max_materials"`
}

type ModelConfig struct {
	Path     string     `toml:"path"`
	Position [3]float32 `toml:"position"`
	// Rotation in degrees around x, y and z.
	Rotation [3]float32 `toml:"rotation"`
	Scale    [3]float32 `toml:"scale"`
}

type LightConfig struct {
	Type        metadata.LightType `toml:"type"`
	Position    [3]float32         `toml:"position"`
	Direction   [3]float32         `toml:"direction"`
	Color       [3]float32         `toml:"color"`
	Intensity   float32            `toml:"intensity"`
	Radius      float32            `toml:"radius"`
	CastShadows bool               `toml:"cast_shadows"`
}

type CameraConfig struct {
	Position [3]float32 `toml:"position"`
	Target   [3]float32 `toml:"target"`
	// Vertical field of view in degrees.
	Fov  float32 `toml:"fov"`
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
	// Radians per second the camera circles the target, 0 keeps it still.
	OrbitSpeed float32 `toml:"orbit_speed"`
}

type SceneConfig struct {
	Models []ModelConfig `toml:"models"`
	Lights []LightConfig `toml:"lights"`
	Camera CameraConfig  `toml:"camera"`
}

/**
 * @brief Everything the application reads from its TOML file. Keys missing
 * from the file keep the values of DefaultApplicationConfig.
 */
type ApplicationConfig struct {
	Window   WindowConfig     `toml:"window"`
	Log      LogConfig        `toml:"log"`
	Renderer RendererSettings `toml:"renderer"`
	Scene    SceneConfig      `toml:"scene"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Name:   "Umbra",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		Log: LogConfig{Level: "info"},
		Renderer: RendererSettings{
			BindingMode:  metadata.BindingPushConstants,
			ShaderDir:    "shaders",
			AssetDir:     "assets",
			ClearColor:   [4]float32{0, 0, 0, 1},
			MaxMaterials: vulkan.VULKAN_MAX_MATERIAL_COUNT,
		},
		Scene: SceneConfig{
			Camera: CameraConfig{
				Position: [3]float32{0, 2, 8},
				Fov:      45,
				Near:     0.1,
				Far:      1000,
			},
		},
	}
}

// LoadConfig reads the configuration file at path.
func LoadConfig(path string) (*ApplicationConfig, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapAssetLoad(err, "reading config")
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	core.LogDebug("Loaded configuration from %s", path)
	return config, nil
}

// ParseConfig decodes a TOML document over the defaults and validates it.
func ParseConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, core.WrapAssetLoad(err, "decoding config")
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *ApplicationConfig) applyDefaults() {
	for i := range c.Scene.Models {
		m := &c.Scene.Models[i]
		if m.Scale == [3]float32{} {
			m.Scale = [3]float32{1, 1, 1}
		}
	}
	for i := range c.Scene.Lights {
		l := &c.Scene.Lights[i]
		if l.Color == [3]float32{} {
			l.Color = [3]float32{1, 1, 1}
		}
		if l.Intensity == 0 {
			l.Intensity = 1
		}
	}
	cam := &c.Scene.Camera
	if cam.Fov == 0 {
		cam.Fov = 45
	}
	if cam.Near == 0 {
		cam.Near = 0.1
	}
	if cam.Far == 0 {
		cam.Far = 1000
	}
}

// Validate rejects configurations the renderer cannot build.
func (c *ApplicationConfig) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return core.ResourceCreationErrorf("window size %dx%d is empty", c.Window.Width, c.Window.Height)
	}
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Renderer.MaxMaterials == 0 {
		return core.ResourceCreationErrorf("max_materials must be positive")
	}
	for i, m := range c.Scene.Models {
		if m.Path == "" {
			return core.AssetLoadErrorf("model %d has no path", i)
		}
	}
	if uint32(len(c.Scene.Lights)) > vulkan.MaxLights {
		return core.ResourceCreationErrorf("%d lights exceed the limit of %d", len(c.Scene.Lights), vulkan.MaxLights)
	}
	casters := uint32(0)
	for i, l := range c.Scene.Lights {
		if l.Type == metadata.LightTypePoint && l.Radius <= 0 {
			return core.ResourceCreationErrorf("point light %d needs a positive radius", i)
		}
		if l.CastShadows {
			casters++
		}
	}
	if casters > vulkan.MaxShadowCasters {
		return core.ResourceCreationErrorf("%d shadow casting lights exceed the limit of %d", casters, vulkan.MaxShadowCasters)
	}
	cam := c.Scene.Camera
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return core.ResourceCreationErrorf("camera clip range [%g, %g] is invalid", cam.Near, cam.Far)
	}
	return nil
}

func (c *ApplicationConfig) LogLevel() core.LogLevel {
	level, _ := core.ParseLogLevel(c.Log.Level)
	return level
}

func (c *ApplicationConfig) RendererConfig() vulkan.RendererConfig {
	return vulkan.RendererConfig{
		ApplicationName: c.Window.Name,
		BindingMode:     c.Renderer.BindingMode,
		Validation:      c.Renderer.Validation,
		ShaderDir:       c.Renderer.ShaderDir,
		AssetDir:        c.Renderer.AssetDir,
		ClearColor:      c.Renderer.ClearColor,
		MaxMaterials:    c.Renderer.MaxMaterials,
	}
}

func (m ModelConfig) Transform() *math.Transform {
	return math.TransformFromEuler(mgl32.Vec3(m.Position), mgl32.Vec3(m.Rotation), mgl32.Vec3(m.Scale))
}

func (l LightConfig) Light() metadata.Light {
	return metadata.Light{
		Type:        l.Type,
		Position:    mgl32.Vec3(l.Position),
		Direction:   mgl32.Vec3(l.Direction),
		Color:       mgl32.Vec3(l.Color),
		Intensity:   l.Intensity,
		Radius:      l.Radius,
		CastShadows: l.CastShadows,
	}
}
