package motionlist

// MotionDef holds one motion parsed from the motion list, together with
// the character it plays on.
type MotionDef struct {
	Character   string
	Skeleton    string // e.g. "hero.skel"
	Expressions string // optional expression blob
	Index       int
	Name        string
	MotionFile  string // e.g. "walk.motn"
	Frames      []float32
	Step        float32
	InPlace     bool
}
