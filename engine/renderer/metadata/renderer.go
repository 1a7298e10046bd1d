package metadata

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief How per-draw data (world matrices, camera and light parameters)
 * reaches the shaders. Resolved once when the renderer is built.
 */
type BindingMode int

const (
	/** @brief Per-draw data is pushed as push constants; command buffers are re-recorded every frame. */
	BindingPushConstants BindingMode = iota
	/** @brief Per-draw data lives in one uniform buffer addressed with dynamic offsets; command buffers are recorded once. */
	BindingDynamicUniforms
)

func (m BindingMode) String() string {
	switch m {
	case BindingPushConstants:
		return "push_constants"
	case BindingDynamicUniforms:
		return "dynamic_uniforms"
	default:
		return "unknown"
	}
}

func ParseBindingMode(s string) (BindingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "push_constants", "push":
		return BindingPushConstants, nil
	case "dynamic_uniforms", "dynamic":
		return BindingDynamicUniforms, nil
	}
	return BindingPushConstants, errors.Newf("unknown binding mode `%s`", s)
}

func (m BindingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *BindingMode) UnmarshalText(text []byte) error {
	v, err := ParseBindingMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

/** @brief The kind of a light source. */
type LightType int

const (
	LightTypeDirectional LightType = iota
	LightTypePoint
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	default:
		return "unknown"
	}
}

func ParseLightType(s string) (LightType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "directional", "sun":
		return LightTypeDirectional, nil
	case "point":
		return LightTypePoint, nil
	}
	return LightTypeDirectional, errors.Newf("unknown light type `%s`", s)
}

func (t LightType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LightType) UnmarshalText(text []byte) error {
	v, err := ParseLightType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

/**
 * @brief A directional or point light. Direction is ignored for point
 * lights except for aiming their shadow map; Radius is ignored for
 * directional lights.
 */
type Light struct {
	Type        LightType
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Intensity   float32
	Radius      float32
	CastShadows bool
}

/**
 * @brief Per-frame inputs of the renderer.
 */
type FrameData struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec3
	/** @brief Seconds since the previous frame. */
	DeltaTime float64
	/** @brief Optional per-model world matrices, indexed like the loaded models. nil keeps the current ones. */
	ModelTransforms []mgl32.Mat4
}
