package handler

import (
	"encoding/json"
	"net/http"

	"github.com/plumeview/plumeview/internal/api/response"
	"github.com/plumeview/plumeview/internal/session"
)

// PlaybackHandler controls the timestep animation.
type PlaybackHandler struct {
	session *session.Session
}

// NewPlaybackHandler creates a playback handler.
func NewPlaybackHandler(s *session.Session) *PlaybackHandler {
	return &PlaybackHandler{session: s}
}

// playbackState is the JSON representation of the playback machine.
type playbackState struct {
	CurrentIndex int  `json:"current_index"`
	Timesteps    int  `json:"timesteps"`
	Playing      bool `json:"playing"`
}

func (h *PlaybackHandler) state() playbackState {
	return playbackState{
		CurrentIndex: h.session.CurrentIndex(),
		Timesteps:    h.session.TimestepCount(),
		Playing:      h.session.Playing(),
	}
}

// GetState returns the current playback state.
func (h *PlaybackHandler) GetState(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.state())
}

// timestepRequest is the body for SetTimestep.
type timestepRequest struct {
	Index int `json:"index"`
}

// SetTimestep seeks to a timestep. Out-of-range indices leave the state
// unchanged, mirroring the controller's silent no-op contract; the
// returned state tells the client where playback actually is.
func (h *PlaybackHandler) SetTimestep(w http.ResponseWriter, r *http.Request) {
	var req timestepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	h.session.SetTimestep(req.Index)
	response.JSON(w, r, http.StatusOK, h.state())
}

// Next advances one timestep without wrapping.
func (h *PlaybackHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.session.Next()
	response.JSON(w, r, http.StatusOK, h.state())
}

// Previous steps back one timestep without wrapping.
func (h *PlaybackHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.session.Previous()
	response.JSON(w, r, http.StatusOK, h.state())
}

// Play starts looping playback.
func (h *PlaybackHandler) Play(w http.ResponseWriter, r *http.Request) {
	h.session.Play()
	response.JSON(w, r, http.StatusOK, h.state())
}

// Pause stops playback.
func (h *PlaybackHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.session.Pause()
	response.JSON(w, r, http.StatusOK, h.state())
}
