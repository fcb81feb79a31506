package entities

// Stage is a client's position in the expiration lifecycle. The same keys
// name message templates and delivery log rows.
type Stage string

const (
	StageActive  Stage = "active"
	StagePre3    Stage = "pre3"
	StagePre2    Stage = "pre2"
	StagePre1    Stage = "pre1"
	StageToday   Stage = "today"
	StagePost1   Stage = "post1"
	StagePost2   Stage = "post2"
	StageExpired Stage = "expired"
)

// AllStages in lifecycle order, furthest from expiration first.
var AllStages = []Stage{
	StageActive,
	StagePre3,
	StagePre2,
	StagePre1,
	StageToday,
	StagePost1,
	StagePost2,
	StageExpired,
}

// Order returns the index of s in AllStages, -1 when unknown.
func (s Stage) Order() int {
	for i, st := range AllStages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool {
	return s.Order() >= 0
}

// DefaultNotifyStages fire on day offsets +3, 0 and -1.
var DefaultNotifyStages = []Stage{StagePre3, StageToday, StagePost1}
