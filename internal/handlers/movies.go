package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"

	"reelshelf/internal/database"
	"reelshelf/internal/filesystem"
	"reelshelf/internal/logging"
	"reelshelf/internal/mediatypes"
)

// MovieList is the response for movie listings and searches.
type MovieList struct {
	Movies []database.Movie `json:"movies"`
	Count  int              `json:"count"`
	Order  string           `json:"order,omitempty"`
	Query  string           `json:"query,omitempty"`
}

func newMovieList(movies []database.Movie) MovieList {
	if movies == nil {
		movies = []database.Movie{}
	}
	return MovieList{Movies: movies, Count: len(movies)}
}

// ListMovies lists the catalog. Query parameters: order (title, recent,
// year) and limit.
func (h *Handlers) ListMovies(w http.ResponseWriter, r *http.Request) {
	order := database.ParseListOrder(r.URL.Query().Get("order"))
	limit := 0
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	movies, err := h.db.ListMovies(r.Context(), order, limit)
	if err != nil {
		logging.Error("ListMovies failed: %v", err)
		writeJSONError(w, "failed to list movies", http.StatusInternalServerError)
		return
	}

	list := newMovieList(movies)
	list.Order = string(order)
	writeJSONStatusCode(w, http.StatusOK, list)
}

// SearchMovies matches every word of q as a title word prefix. An empty
// query returns no movies.
func (h *Handlers) SearchMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	movies, err := h.db.SearchMovies(r.Context(), query)
	if err != nil {
		logging.Error("SearchMovies(%q) failed: %v", query, err)
		writeJSONError(w, "search failed", http.StatusInternalServerError)
		return
	}

	list := newMovieList(movies)
	list.Query = query
	writeJSONStatusCode(w, http.StatusOK, list)
}

// ContinueWatching lists unwatched movies with a saved position.
func (h *Handlers) ContinueWatching(w http.ResponseWriter, r *http.Request) {
	ids, err := h.db.ContinueWatchingIDs(r.Context())
	if err != nil {
		writeJSONError(w, "failed to read play state", http.StatusInternalServerError)
		return
	}
	movies, err := h.db.MoviesByIDs(r.Context(), ids)
	if err != nil {
		writeJSONError(w, "failed to load movies", http.StatusInternalServerError)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, newMovieList(movies))
}

// GetMovie returns a movie with its files, poster and play state.
func (h *Handlers) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		writeJSONError(w, "invalid movie id", http.StatusBadRequest)
		return
	}

	detail, err := h.db.GetMovieDetail(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "movie not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("GetMovieDetail(%d) failed: %v", id, err)
		writeJSONError(w, "failed to load movie", http.StatusInternalServerError)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, detail)
}

// GetPoster serves the movie's poster JPEG from the artifact cache.
func (h *Handlers) GetPoster(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		writeJSONError(w, "invalid movie id", http.StatusBadRequest)
		return
	}

	images, err := h.db.ImagesForMovie(r.Context(), id, database.ImageKindPoster)
	if err != nil {
		writeJSONError(w, "failed to load poster", http.StatusInternalServerError)
		return
	}
	if len(images) == 0 {
		writeJSONError(w, "poster not found", http.StatusNotFound)
		return
	}

	img := images[0]
	f, err := filesystem.OpenWithRetry(img.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Poster for movie %d unreadable at %s: %v", id, img.Path, err)
		}
		writeJSONError(w, "poster not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeJSONError(w, "poster not found", http.StatusNotFound)
		return
	}

	// Cache paths are content addressed, but regeneration can replace the
	// file in place, so clients must revalidate.
	w.Header().Set("Content-Type", mediatypes.GetMimeType(filepath.Ext(img.Path)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Poster-Source", img.Src)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
