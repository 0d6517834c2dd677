package session

// EventType names an input event.
type EventType string

const (
	EventResize    EventType = "resize"
	EventDragStart EventType = "dragStart"
	EventDragMove  EventType = "dragMove"
	EventDragEnd   EventType = "dragEnd"
	EventSelect    EventType = "select"

	EventZoomIn         EventType = "zoomIn"
	EventZoomOut        EventType = "zoomOut"
	EventReset          EventType = "reset"
	EventUndo           EventType = "undo"
	EventSetFractal     EventType = "setFractal"
	EventSetScheme      EventType = "setScheme"
	EventSetJulia       EventType = "setJulia"
	EventAddKeyframe    EventType = "addKeyframe"
	EventAddLandmark    EventType = "addLandmark"
	EventClearKeyframes EventType = "clearKeyframes"
	EventStartTour      EventType = "startTour"
	EventStopTour       EventType = "stopTour"
)

// Event is an input event from the display layer. Only the fields relevant
// to Type are read:
//
//	resize             Width, Height
//	dragStart/Move     X, Y
//	select             X, Y (one corner), X2, Y2 (the other)
//	setFractal         Name: "mandelbrot" or "julia"
//	setScheme          Name: RAINBOW, GRAYSCALE, FIRE, ICE or CUSTOM
//	setJulia           Re, Im
//	addLandmark        Name: see fractal.LandmarkNames
type Event struct {
	Type EventType `json:"type"`

	X  float64 `json:"x,omitempty"`
	Y  float64 `json:"y,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Name string  `json:"name,omitempty"`
	Re   float64 `json:"re,omitempty"`
	Im   float64 `json:"im,omitempty"`
}

// navigates reports whether e moves the view on behalf of the user.
func (e Event) navigates() bool {
	switch e.Type {
	case EventDragStart, EventSelect, EventZoomIn, EventZoomOut, EventReset, EventUndo:
		return true
	}
	return false
}
