package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"

	"pickem-service/internal/app"
	"pickem-service/internal/domain"
)

// UserHeader carries the caller identity set by the upstream proxy.
const UserHeader = "X-User-ID"

var errMissingUser = errors.New("missing or invalid " + UserHeader)

type Handler struct {
	picks        *app.PickService
	leaderboards *app.LeaderboardService
}

func NewHandler(picks *app.PickService, leaderboards *app.LeaderboardService) *Handler {
	return &Handler{picks: picks, leaderboards: leaderboards}
}

// Routes registers every endpoint on a fresh mux wrapped with request id and logging middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /books/{bookID}/chapters/{chapterID}/picks", h.submitPicks)
	mux.HandleFunc("GET /books/{bookID}/chapters/{chapterID}/picks", h.userPicks)
	mux.HandleFunc("POST /books/{bookID}/chapters/{chapterID}/events/refresh", h.refreshEvents)
	mux.HandleFunc("GET /books/{bookID}/chapters/{chapterID}/leaderboard", h.chapterLeaderboard)
	mux.HandleFunc("GET /books/{bookID}/chapters/{chapterID}/results", h.chapterResults)
	mux.HandleFunc("GET /books/{bookID}/chapters/{chapterID}/unsubmitted", h.unsubmitted)
	mux.HandleFunc("GET /books/{bookID}/leaderboard", h.bookLeaderboard)
	mux.HandleFunc("GET /books/{bookID}/chapters", h.chapterStats)
	return withRequestID(withLogging(mux))
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) submitPicks(w http.ResponseWriter, r *http.Request) {
	req, ok := parseChapterRequest(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	if _, err := h.picks.Submit(r.Context(), req.bookID, req.chapterID, req.userID, r.Body); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Picks Saved"})
}

func (h *Handler) refreshEvents(w http.ResponseWriter, r *http.Request) {
	req, ok := parseChapterRequest(w, r)
	if !ok {
		return
	}
	if err := h.picks.RefreshEvents(r.Context(), req.bookID, req.chapterID, req.userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Events Refreshed"})
}

type pickView struct {
	EventID int              `json:"eventId"`
	Kind    domain.EventKind `json:"kind"`
	Sides   []domain.Side    `json:"sides,omitempty"`
	Wagers  []int            `json:"wagers,omitempty"`
	Text    *string          `json:"text,omitempty"`
}

func (h *Handler) userPicks(w http.ResponseWriter, r *http.Request) {
	req, ok := parseChapterRequest(w, r)
	if !ok {
		return
	}
	picks, err := h.picks.UserPicks(r.Context(), req.bookID, req.chapterID, req.userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]pickView, 0, len(picks))
	for _, pick := range picks {
		view := pickView{EventID: pick.EventID}
		switch c := pick.Choice.(type) {
		case domain.SpreadChoices:
			view.Kind, view.Sides, view.Wagers = domain.KindSpreadGroup, c.Sides, c.Wagers
		case domain.TextChoice:
			text := c.Text
			view.Kind, view.Text = domain.KindUserInput, &text
		default:
			continue
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].EventID < views[j].EventID })
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) chapterLeaderboard(w http.ResponseWriter, r *http.Request) {
	req, ok := parseChapterRequest(w, r)
	if !ok {
		return
	}
	board, err := h.leaderboards.ChapterLeaderboard(r.Context(), req.bookID, req.chapterID, req.userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handler) chapterResults(w http.ResponseWriter, r *http.Request) {
	req, ok := parseChapterRequest(w, r)
	if !ok {
		return
	}
	results, err := h.leaderboards.ChapterResults(r.Context(), req.bookID, req.chapterID, req.userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) unsubmitted(w http.ResponseWriter, r *http.Request) {
	req, ok := parseChapterRequest(w, r)
	if !ok {
		return
	}
	members, err := h.leaderboards.Unsubmitted(r.Context(), req.bookID, req.chapterID, req.userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if members == nil {
		members = []domain.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) bookLeaderboard(w http.ResponseWriter, r *http.Request) {
	req, ok := parseBookRequest(w, r)
	if !ok {
		return
	}
	board, err := h.leaderboards.BookLeaderboard(r.Context(), req.bookID, req.userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handler) chapterStats(w http.ResponseWriter, r *http.Request) {
	req, ok := parseBookRequest(w, r)
	if !ok {
		return
	}
	stats, err := h.leaderboards.ChapterStats(r.Context(), req.bookID, req.userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type request struct {
	bookID    int
	chapterID int
	userID    int
}

func parseBookRequest(w http.ResponseWriter, r *http.Request) (request, bool) {
	userID, err := strconv.Atoi(r.Header.Get(UserHeader))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: errMissingUser.Error()})
		return request{}, false
	}
	bookID, err := strconv.Atoi(r.PathValue("bookID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "book not found"})
		return request{}, false
	}
	return request{bookID: bookID, userID: userID}, true
}

func parseChapterRequest(w http.ResponseWriter, r *http.Request) (request, bool) {
	req, ok := parseBookRequest(w, r)
	if !ok {
		return request{}, false
	}
	chapterID, err := strconv.Atoi(r.PathValue("chapterID"))
	if err != nil {
		writeError(w, r, domain.ErrChapterNotFound)
		return request{}, false
	}
	req.chapterID = chapterID
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
