package handler

import "net/http"

// LibraryHandler serves a user's song library. Requests reach it only after
// the ticket middleware has matched the ticket owner to {user_id}.
type LibraryHandler interface {
	AddSongs(w http.ResponseWriter, r *http.Request)
	DeleteSong(w http.ResponseWriter, r *http.Request)
	DeleteLibrary(w http.ResponseWriter, r *http.Request)
}

// EventHandler serves event discovery by location.
type EventHandler interface {
	NearbyEvents(w http.ResponseWriter, r *http.Request)
}

// Unavailable answers 501 for collaborator routes with no implementation.
type Unavailable struct{}

var (
	_ LibraryHandler = Unavailable{}
	_ EventHandler   = Unavailable{}
)

// AddSongs handles POST /users/{user_id}/library/songs.
func (Unavailable) AddSongs(w http.ResponseWriter, r *http.Request) {
	writeNotImplemented(w)
}

// DeleteSong handles DELETE /users/{user_id}/library/{lib_id}.
func (Unavailable) DeleteSong(w http.ResponseWriter, r *http.Request) {
	writeNotImplemented(w)
}

// DeleteLibrary handles DELETE /users/{user_id}/library.
func (Unavailable) DeleteLibrary(w http.ResponseWriter, r *http.Request) {
	writeNotImplemented(w)
}

// NearbyEvents handles GET /event/{latitude}/{longitude}.
func (Unavailable) NearbyEvents(w http.ResponseWriter, r *http.Request) {
	writeNotImplemented(w)
}

func writeNotImplemented(w http.ResponseWriter) {
	writeError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "endpoint not available")
}
