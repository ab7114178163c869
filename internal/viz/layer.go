package viz

import (
	"fmt"

	"github.com/plumeview/plumeview/internal/forecast"
)

// Layer is one phenomenon's visualization. Visibility is orthogonal to
// having data: a hidden layer still caches the most recent timestep so a
// later SetVisible(true) can restore it without new data.
//
// All methods mutate only the map surface and the layer's own state;
// layers never touch another layer's surface objects.
type Layer interface {
	// Name identifies the layer (the phenomenon it renders).
	Name() string

	// RenderTimestep renders the layer's slice of the given timestep.
	RenderTimestep(ts forecast.Timestep)

	// Clear removes the layer's current visual representation from the
	// surface. Idempotent.
	Clear()

	// SetVisible shows or hides the layer. Transitioning to visible
	// re-renders cached data; transitioning to hidden clears.
	SetVisible(visible bool)

	// Visible reports the current visibility.
	Visible() bool
}

func colorHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
