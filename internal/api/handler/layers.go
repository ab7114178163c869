package handler

import (
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/plumeview/plumeview/internal/api/response"
	"github.com/plumeview/plumeview/internal/session"
	"github.com/plumeview/plumeview/internal/viz"
)

// LayersHandler serves layer state, rendered overlays and markers.
type LayersHandler struct {
	session *session.Session
}

// NewLayersHandler creates a layers handler.
func NewLayersHandler(s *session.Session) *LayersHandler {
	return &LayersHandler{session: s}
}

// layerState is the JSON representation of one layer.
type layerState struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// ListLayers returns every layer and its visibility.
func (h *LayersHandler) ListLayers(w http.ResponseWriter, r *http.Request) {
	names := h.session.LayerNames()
	layers := make([]layerState, 0, len(names))
	for _, name := range names {
		visible, _ := h.session.LayerVisible(name)
		layers = append(layers, layerState{Name: name, Visible: visible})
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"layers": layers})
}

// GetOverlay serves a layer's current raster overlay as PNG. The
// geographic bounds travel in headers so a map client can position the
// image.
func (h *LayersHandler) GetOverlay(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "layer")
	if _, err := h.session.LayerVisible(name); err != nil {
		response.NotFound(w, r, "unknown layer")
		return
	}

	overlay, ok := h.session.Overlay(name)
	if !ok {
		response.NotFound(w, r, "layer has no rendered overlay")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Bounds-South", formatFloat(overlay.Bounds.South))
	w.Header().Set("X-Bounds-West", formatFloat(overlay.Bounds.West))
	w.Header().Set("X-Bounds-North", formatFloat(overlay.Bounds.North))
	w.Header().Set("X-Bounds-East", formatFloat(overlay.Bounds.East))
	if err := png.Encode(w, overlay.Image); err != nil {
		// Headers are already gone; nothing useful left to do.
		return
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GetMarkers serves a layer's current marker group as JSON.
func (h *LayersHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "layer")
	if _, err := h.session.LayerVisible(name); err != nil {
		response.NotFound(w, r, "unknown layer")
		return
	}

	group, ok := h.session.Markers(name)
	if !ok {
		response.JSON(w, r, http.StatusOK, map[string]interface{}{"markers": []viz.Marker{}})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"markers": group.Markers})
}

// visibilityRequest is the body for SetVisibility.
type visibilityRequest struct {
	Visible bool `json:"visible"`
}

// SetVisibility shows or hides a layer.
func (h *LayersHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "layer")

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.session.SetLayerVisibility(name, req.Visible); err != nil {
		if errors.Is(err, session.ErrUnknownLayer) {
			response.NotFound(w, r, "unknown layer")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "failed to update layer")
		return
	}
	response.JSON(w, r, http.StatusOK, layerState{Name: name, Visible: req.Visible})
}

// viewModeRequest is the body for SetViewMode.
type viewModeRequest struct {
	Mode string `json:"mode"`
}

// SetViewMode switches the pollution source marker style.
func (h *LayersHandler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	var req viewModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	mode := viz.ViewMode(req.Mode)
	if mode != viz.ViewModeMarkers && mode != viz.ViewModeIcons {
		response.BadRequest(w, r, "mode must be \"markers\" or \"icons\"")
		return
	}

	h.session.SetSourceViewMode(mode)
	response.JSON(w, r, http.StatusOK, map[string]string{"mode": req.Mode})
}
