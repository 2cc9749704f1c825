package hue

// Light represents a Hue light as seen at snapshot time.
type Light struct {
	ID         string
	Name       string
	On         bool
	Brightness *int // nil when the light reports no brightness
}

// Group represents a Hue group (room, zone or light group).
type Group struct {
	ID     string
	Name   string
	Type   string
	Lights []string // member light IDs in bridge order
}
