// Package lighting holds the light sources the Phong shader reads.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/pkg/math"
)

// Directional is a light infinitely far away, like the sun.
type Directional struct {
	// Direction is the way the light travels, from the light into the scene.
	Direction math.Vec3
	Color     math.Vec3
	Ambient   math.Vec3
}

// Default lights the scene from above and slightly in front.
func Default() Directional {
	return Directional{
		Direction: math.Vec3{Y: -1, Z: -0.5}.Normalize(),
		Color:     math.One,
		Ambient:   math.One,
	}
}

// SunDirection converts longitude/latitude angles in degrees to a unit
// vector pointing towards the sun. Longitude is rotation around Y, latitude
// is elevation from the horizon.
func SunDirection(longitude, latitude float32) math.Vec3 {
	lonRad := longitude * math32.Pi / 180
	latRad := latitude * math32.Pi / 180

	sinLon, cosLon := math32.Sincos(lonRad)
	sinLat, cosLat := math32.Sincos(latRad)
	return math.Vec3{
		X: cosLat * sinLon,
		Y: sinLat,
		Z: cosLat * cosLon,
	}
}

// FromSun builds a directional light shining from the sun position.
func FromSun(longitude, latitude float32, color, ambient math.Vec3) Directional {
	return Directional{
		Direction: SunDirection(longitude, latitude).Neg(),
		Color:     color,
		Ambient:   ambient,
	}
}

// Apply uploads the light to the active program.
func (d Directional) Apply(u shader.Uniforms) {
	u.SetVec3("directionalLight", d.Direction)
	u.SetVec3("directionalColor", d.Color)
	u.SetVec3("ambientColor", d.Ambient)
}
