package store

// StorageClass classifies how a component kind's container behaves:
// per-system containers are opaque and owned by one system, shared
// containers are versioned and cross-thread readable, value-system
// containers are small single-writer PODs.
type StorageClass int

const (
	PerSystem StorageClass = iota
	Shared
	ValueSystem
)

// Kind is a closed enumeration of typed component slots: a tagged sum
// where each Kind resolves to exactly one concrete Go value type via
// the factory functions in container.go/shared.go.
type Kind int

const (
	KindVelocity Kind = iota
	KindVelocityMax
	KindReferenceFrame
	KindCombinedVelocity
	KindCollidable
	KindOxygen
	KindHealth
	KindImmune
	KindGraphicTransform
	KindGameTransform
	numKinds
)

var allKinds = []Kind{
	KindVelocity, KindVelocityMax, KindReferenceFrame, KindCombinedVelocity,
	KindCollidable, KindOxygen, KindHealth, KindImmune,
	KindGraphicTransform, KindGameTransform,
}

var kindNames = map[Kind]string{
	KindVelocity:         "velocity",
	KindVelocityMax:      "velocity-max",
	KindReferenceFrame:   "reference-frame",
	KindCombinedVelocity: "combined-velocity",
	KindCollidable:       "collidable",
	KindOxygen:           "oxygen",
	KindHealth:           "health",
	KindImmune:           "immune",
	KindGraphicTransform: "graphic-transform",
	KindGameTransform:    "game-transform",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown-kind"
}

var kindClasses = map[Kind]StorageClass{
	KindVelocity:         ValueSystem,
	KindVelocityMax:      ValueSystem,
	KindReferenceFrame:   PerSystem,
	KindCombinedVelocity: Shared,
	KindCollidable:       PerSystem,
	KindOxygen:           ValueSystem,
	KindHealth:           ValueSystem,
	KindImmune:           ValueSystem,
	KindGraphicTransform: Shared,
	KindGameTransform:    Shared,
}

// Class reports the storage class assigned to k.
func (k Kind) Class() StorageClass { return kindClasses[k] }
