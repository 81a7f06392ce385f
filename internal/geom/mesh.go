package geom

// MeshStats is the output of the external geometry analyzer for an
// imported model: unscaled volume, centroid, and the point the wire
// should attach to. The analyzer itself is a collaborator; this package
// only consumes its result.
type MeshStats struct {
	Volume          float64
	CenterOfGravity Vec3
	AttachmentPoint Vec3
	BoundingBox     Box
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

const (
	// ModelDensity maps analyzer volume into scene mass units,
	// roughly 0.8 g/cm^3.
	ModelDensity = 0.8

	minModelMass = 0.1
	maxModelMass = 10.0
)

// OffsetFromAttachment gives the translation that puts the mesh's wire
// attachment point at the local origin.
func (m MeshStats) OffsetFromAttachment() Vec3 {
	return m.AttachmentPoint.Neg()
}

// MassFromVolume estimates a plausible mass for a model-shape weight.
// The result is clamped so a degenerate or giant mesh still yields a
// usable sculpture.
func MassFromVolume(volume float64) float64 {
	return Clamp(volume*ModelDensity, minModelMass, maxModelMass)
}
