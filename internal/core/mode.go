package core

type Mode int

const (
	ModeServe Mode = iota
	ModeBuild
)

func (m Mode) String() string {
	switch m {
	case ModeServe:
		return "serve"
	case ModeBuild:
		return "build"
	default:
		return "unknown"
	}
}
