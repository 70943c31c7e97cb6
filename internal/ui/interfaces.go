package ui

// Controller receives player input from a view. Views call it off their
// render loop, so implementations serialize turns themselves.
type Controller interface {
	OnSubmit(line string)
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(c Controller)
	SetFrame(f Frame)
	FlashStatus(msg string)
	Toast(title, body string)
	// SetHistoryOwner switches command recall to player's history. An
	// empty name selects the menu's history.
	SetHistoryOwner(player string)
}

type LayoutMode int

const (
	LayoutTooSmall LayoutMode = iota
	LayoutMedium
	LayoutWide
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutWide:
		return "wide"
	case LayoutMedium:
		return "medium"
	default:
		return "too_small"
	}
}

// Frame is everything a view needs to draw one screen. It is plain data:
// the game decides what is on screen, views only decide how it looks.
type Frame struct {
	Title string
	Body  []string
	// Markdown is rendered below Body. Views without a renderer print it
	// as-is.
	Markdown string
	// Messages is the output of the last submitted line.
	Messages []string
	Prompt   string
	Status   string
	// Playing enables the in-game shortcut keys.
	Playing bool
	// Completed and Total drive the escape progress bar. Total of zero
	// hides it.
	Completed int
	Total     int
}

// Ratio is Completed/Total clamped to [0,1].
func (f Frame) Ratio() float64 {
	if f.Total <= 0 {
		return 0
	}
	r := float64(f.Completed) / float64(f.Total)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
