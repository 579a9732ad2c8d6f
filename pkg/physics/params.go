package physics

import (
	"fmt"
	"math"
)

// Params holds the simulator constants. The zero value is not usable; start
// from [DefaultParams].
type Params struct {
	// MinSeparation is the surface clearance below which siblings repel.
	MinSeparation float64 `toml:"min_separation" json:"min_separation"`
	// RepulsionCap bounds the sibling repulsion impulse.
	RepulsionCap float64 `toml:"repulsion_cap" json:"repulsion_cap"`

	// AttractSlack and RepelSlack bound the edge dead zone:
	// [rest+RepelSlack, rest+AttractSlack].
	AttractSlack float64 `toml:"attract_slack" json:"attract_slack"`
	RepelSlack   float64 `toml:"repel_slack" json:"repel_slack"`
	// AttractionCap bounds both edge spring impulses.
	AttractionCap float64 `toml:"attraction_cap" json:"attraction_cap"`

	// ContainerGain pulls a container toward its children's centroid.
	ContainerGain float64 `toml:"container_gain" json:"container_gain"`
	// ChildCentroidGain pulls children toward their centroid.
	ChildCentroidGain float64 `toml:"child_centroid_gain" json:"child_centroid_gain"`
	// ChildAnchorGain drags children so their centroid follows the
	// container.
	ChildAnchorGain float64 `toml:"child_anchor_gain" json:"child_anchor_gain"`
	// RadiusLerp is the fraction of the way a container radius moves toward
	// its target each tick.
	RadiusLerp float64 `toml:"radius_lerp" json:"radius_lerp"`

	// IntegrationGain is the fraction of potential applied to position.
	IntegrationGain float64 `toml:"integration_gain" json:"integration_gain"`
	// Decay multiplies the potential after integration.
	Decay float64 `toml:"decay" json:"decay"`

	// FlowRate is the speed of edge segments in cycles per millisecond.
	FlowRate float64 `toml:"flow_rate" json:"flow_rate"`
	// ViewTilt tilts leaf nodes about the view X axis, in radians.
	ViewTilt float64 `toml:"view_tilt" json:"view_tilt"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		MinSeparation:     1,
		RepulsionCap:      0.2,
		AttractSlack:      2,
		RepelSlack:        1,
		AttractionCap:     0.05,
		ContainerGain:     0.1,
		ChildCentroidGain: 0.01,
		ChildAnchorGain:   0.15,
		RadiusLerp:        0.1,
		IntegrationGain:   0.025,
		Decay:             0.965,
		FlowRate:          0.001,
		ViewTilt:          0.4,
	}
}

// Validate rejects parameter sets that make the simulation meaningless or
// guarantee divergence.
func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"min_separation", p.MinSeparation},
		{"repulsion_cap", p.RepulsionCap},
		{"attract_slack", p.AttractSlack},
		{"repel_slack", p.RepelSlack},
		{"attraction_cap", p.AttractionCap},
		{"container_gain", p.ContainerGain},
		{"child_centroid_gain", p.ChildCentroidGain},
		{"child_anchor_gain", p.ChildAnchorGain},
		{"radius_lerp", p.RadiusLerp},
		{"integration_gain", p.IntegrationGain},
		{"decay", p.Decay},
		{"flow_rate", p.FlowRate},
		{"view_tilt", p.ViewTilt},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be finite", f.name)
		}
	}
	for _, f := range fields[:10] {
		if f.v < 0 {
			return fmt.Errorf("%s must not be negative (got %v)", f.name, f.v)
		}
	}
	if p.RepelSlack > p.AttractSlack {
		return fmt.Errorf("repel_slack (%v) must not exceed attract_slack (%v)", p.RepelSlack, p.AttractSlack)
	}
	if p.RadiusLerp <= 0 || p.RadiusLerp >= 1 {
		return fmt.Errorf("radius_lerp must be in (0, 1) (got %v)", p.RadiusLerp)
	}
	if p.Decay <= 0 || p.Decay >= 1 {
		return fmt.Errorf("decay must be in (0, 1) (got %v)", p.Decay)
	}
	if p.IntegrationGain <= 0 {
		return fmt.Errorf("integration_gain must be positive (got %v)", p.IntegrationGain)
	}
	return nil
}
