package modular

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLink
	PhaseInit
	PhaseUpdate
	PhaseApply
	PhasePropagate
	PhasePostprop
	PhasePostcalc
)

var phaseNames = map[Phase]string{
	PhaseIdle:      "idle",
	PhaseLink:      "link",
	PhaseInit:      "init",
	PhaseUpdate:    "update",
	PhaseApply:     "apply",
	PhasePropagate: "propagate",
	PhasePostprop:  "postprop",
	PhasePostcalc:  "postcalc",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}
