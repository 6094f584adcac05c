package dto

import "peerlink/internal/modules/profile/domain"

type State string

const (
	StateIdle         State = "idle"
	StateLoading      State = "loading"
	StateReady        State = "ready"
	StateNotFound     State = "not_found"
	StateUnauthorized State = "unauthorized"
	StateErrored      State = "errored"
)

type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

// Profile is the normalized participant record handed to presentation layers.
type Profile = domain.ParticipantProfile

type LoadProfileInput struct {
	Login string
	// Caller scopes supersession: a load only overtakes earlier loads of the
	// same caller. The empty caller is the interactive session.
	Caller string
}

// ProfileOutput is the terminal state of one load. Profile is set only when
// State is StateReady.
type ProfileOutput struct {
	State      State
	Generation uint64
	RequestID  string
	Caller     string
	Login      string
	Source     Source
	Profile    *Profile
	// Missing lists optional resources that produced no data.
	Missing []string
	Message string
	// Reauthenticate is set when the stored token was rejected during the load.
	Reauthenticate bool
}

type CachePurgeOutput struct {
	Removed int
}
