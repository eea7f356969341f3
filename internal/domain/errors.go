package domain

import "errors"

var (
	// ErrMalformedRequest is returned when a submission body cannot be decoded into its expected shape.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrInvalidEventID indicates a submitted event id is not an integer.
	ErrInvalidEventID = errors.New("could not parse event id")
	// ErrInvalidPoints indicates a spread group point value is not an integer.
	ErrInvalidPoints = errors.New("could not parse spread group points")
	// ErrPointsOutOfRange indicates a point value outside [1, N].
	ErrPointsOutOfRange = errors.New("points out of range")
	// ErrPointsPermutation indicates point values that are not each used exactly once.
	ErrPointsPermutation = errors.New("points not used exactly once")
	// ErrInvalidSelection indicates a spread selection other than home or away.
	ErrInvalidSelection = errors.New("invalid spread selection")
	// ErrUnknownEvent is returned when a submission references an event outside the chapter.
	ErrUnknownEvent = errors.New("event not found")
	// ErrEventMismatch indicates a submission entry whose shape differs from the catalog event.
	ErrEventMismatch = errors.New("submission does not match event")
	// ErrDuplicateEvent indicates the same event was submitted twice in one batch.
	ErrDuplicateEvent = errors.New("event submitted more than once")

	// ErrChapterClosed is returned for submissions against a chapter that is not accepting picks.
	ErrChapterClosed = errors.New("this chapter is closed")
	// ErrChapterNotFound indicates the chapter could not be loaded for the book.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrForbidden is returned when the caller may not see or act on a chapter.
	ErrForbidden = errors.New("not authorized for this chapter")

	// ErrStorage marks failures of the catalog, pick, member or added-points collaborators.
	ErrStorage = errors.New("storage failure")
	// ErrDataIntegrity marks persisted picks whose shape contradicts their event.
	ErrDataIntegrity = errors.New("inconsistent pick data")
	// ErrTeamNotFound indicates a spread references a team missing from the directory.
	ErrTeamNotFound = errors.New("team not found")
	// ErrUnknownEventKind indicates event or pick JSON that matches no known variant.
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// ValidationError is a client error raised while checking a submission.
// Err is one of the sentinel kinds above; Msg is safe to show to the participant.
type ValidationError struct {
	Err     error
	EventID string
	Msg     string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
