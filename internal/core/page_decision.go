package core

type PageAction int

const (
	ActionPassThrough PageAction = iota
	ActionRender
	ActionError
)

func (a PageAction) String() string {
	switch a {
	case ActionPassThrough:
		return "pass-through"
	case ActionRender:
		return "render"
	case ActionError:
		return "error"
	default:
		return "unknown"
	}
}

type PageDecision struct {
	Action PageAction
	Source RenderSource
}

func DecidePageAction(src RenderSource, matched bool) PageDecision {
	if !matched {
		return PageDecision{Action: ActionPassThrough}
	}
	return PageDecision{Action: ActionRender, Source: src}
}
