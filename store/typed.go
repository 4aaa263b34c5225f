package store

// Typed accessors. The store keeps its per-kind containers behind
// any/sharedContainer so construction in New can loop uniformly over
// allKinds; callers that know a kind's concrete value type use these
// to get back a usable *Container[V] or *SharedContainer[V] without
// repeating the type assertion at every call site.

func Velocity(s *Store) *Container[Vec3] {
	return s.plain[KindVelocity].(*Container[Vec3])
}

func VelocityMax(s *Store) *Container[Vec3] {
	return s.plain[KindVelocityMax].(*Container[Vec3])
}

func ReferenceFrame(s *Store) *Container[EntityID] {
	return s.plain[KindReferenceFrame].(*Container[EntityID])
}

func Collidable(s *Store) *Container[Marker] {
	return s.plain[KindCollidable].(*Container[Marker])
}

func Oxygen(s *Store) *Container[Scalar] {
	return s.plain[KindOxygen].(*Container[Scalar])
}

func Health(s *Store) *Container[Scalar] {
	return s.plain[KindHealth].(*Container[Scalar])
}

func Immune(s *Store) *Container[Scalar] {
	return s.plain[KindImmune].(*Container[Scalar])
}

func CombinedVelocity(s *Store) *SharedContainer[Vec3] {
	return s.shared[KindCombinedVelocity].(*SharedContainer[Vec3])
}

func GraphicTransform(s *Store) *SharedContainer[Transform] {
	return s.shared[KindGraphicTransform].(*SharedContainer[Transform])
}

func GameTransform(s *Store) *SharedContainer[Transform] {
	return s.shared[KindGameTransform].(*SharedContainer[Transform])
}
