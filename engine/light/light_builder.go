package light

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = mgl32.Vec3{x, y, z}
	}
}

// WithDirection is an option builder that rotates the light to shine along a
// direction.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.rotation = common.LookRotation(mgl32.Vec3{x, y, z}, mgl32.Vec3{0, 1, 0})
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithBrightness is an option builder that sets the brightness multiplier. Negative
// brightness makes a subtractive light.
//
// Parameters:
//   - brightness: the brightness value
//
// Returns:
//   - LightBuilderOption: a function that applies the brightness option to a lightImpl
func WithBrightness(brightness float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.brightness = brightness
	}
}

// WithSpecularIntensity is an option builder that sets the specular multiplier.
//
// Parameters:
//   - intensity: the specular intensity, clamped to zero
//
// Returns:
//   - LightBuilderOption: a function that applies the specular option to a lightImpl
func WithSpecularIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.specular = max(intensity, 0)
	}
}

// WithRange is an option builder that sets the attenuation range of point and spot
// lights.
//
// Parameters:
//   - lightRange: the range value
//
// Returns:
//   - LightBuilderOption: a function that applies the range option to a lightImpl
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightRange = max(lightRange, 0)
	}
}

// WithSpotCone is an option builder that sets the spot frustum.
//
// Parameters:
//   - fov: full cone angle in degrees
//   - aspect: width/height ratio of the spot frustum
//
// Returns:
//   - LightBuilderOption: a function that applies the cone option to a lightImpl
func WithSpotCone(fov, aspect float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.fov = mgl32.Clamp(fov, 0, 180)
		l.aspect = max(aspect, common.Epsilon)
	}
}

// WithEnabled is an option builder that sets whether the light is active.
//
// Parameters:
//   - enabled: true to enable the light
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a lightImpl
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetEnabled(enabled)
	}
}

// WithCastShadows is an option builder that sets whether the light renders shadow
// maps.
//
// Parameters:
//   - castShadows: true to enable shadow casting
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option to a lightImpl
func WithCastShadows(castShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetCastShadows(castShadows)
	}
}

// WithImportance is an option builder that sets the light importance.
//
// Parameters:
//   - importance: the importance
//
// Returns:
//   - LightBuilderOption: a function that applies the importance option to a lightImpl
func WithImportance(importance Importance) LightBuilderOption {
	return func(l *lightImpl) {
		l.importance = importance
	}
}

// WithPerVertex is an option builder that restricts the light to vertex lighting.
//
// Parameters:
//   - perVertex: true for vertex lighting only
//
// Returns:
//   - LightBuilderOption: a function that applies the option to a lightImpl
func WithPerVertex(perVertex bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.perVertex = perVertex
	}
}

// WithFade is an option builder that sets the distance fade: the light starts fading
// at fadeDistance and is culled at drawDistance. Zero disables either.
//
// Parameters:
//   - fadeDistance: distance the fade starts at
//   - drawDistance: distance the light is fully faded at
//
// Returns:
//   - LightBuilderOption: a function that applies the fade option to a lightImpl
func WithFade(fadeDistance, drawDistance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.fadeDist = max(fadeDistance, 0)
		l.SetDrawDistance(max(drawDistance, 0))
	}
}

// WithShadowFade is an option builder that sets where shadows fade to full light.
//
// Parameters:
//   - fadeDistance: distance the shadow fade starts at
//   - shadowDistance: distance beyond which the light casts no shadows
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow fade option to a lightImpl
func WithShadowFade(fadeDistance, shadowDistance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowFade = max(fadeDistance, 0)
		l.SetShadowDistance(max(shadowDistance, 0))
	}
}

// WithShadowIntensity is an option builder that sets how dark shadows are: 0 is
// fully dark, 1 disables shadowing.
//
// Parameters:
//   - intensity: the shadow intensity
//
// Returns:
//   - LightBuilderOption: a function that applies the option to a lightImpl
func WithShadowIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowInt = mgl32.Clamp(intensity, 0, 1)
	}
}

// WithShadowBias is an option builder that sets the shadow depth bias.
//
// Parameters:
//   - bias: the bias parameters
//
// Returns:
//   - LightBuilderOption: a function that applies the bias option to a lightImpl
func WithShadowBias(bias graphics.BiasParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.bias = bias
	}
}

// WithShadowCascade is an option builder that sets the directional cascade splits.
//
// Parameters:
//   - cascade: the cascade parameters
//
// Returns:
//   - LightBuilderOption: a function that applies the cascade option to a lightImpl
func WithShadowCascade(cascade CascadeParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.cascade = cascade.validated()
	}
}

// WithShadowFocus is an option builder that sets shadow camera focusing.
//
// Parameters:
//   - focus: the focus parameters
//
// Returns:
//   - LightBuilderOption: a function that applies the focus option to a lightImpl
func WithShadowFocus(focus FocusParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.focus = focus.validated()
	}
}

// WithLightMask is an option builder that sets which drawables the light affects.
//
// Parameters:
//   - mask: the light mask
//
// Returns:
//   - LightBuilderOption: a function that applies the mask option to a lightImpl
func WithLightMask(mask uint32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetLightMask(mask)
	}
}

// WithShapeTexture is an option builder that sets the light cookie.
//
// Parameters:
//   - tex: the shape texture
//
// Returns:
//   - LightBuilderOption: a function that applies the texture option to a lightImpl
func WithShapeTexture(tex *graphics.Texture) LightBuilderOption {
	return func(l *lightImpl) {
		l.shapeTex = tex
	}
}
