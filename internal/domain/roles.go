package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RoleKind is a member's standing in a book.
type RoleKind string

const (
	RoleOwner        RoleKind = "owner"
	RoleAdmin        RoleKind = "admin"
	RoleParticipant  RoleKind = "participant"
	RoleGuest        RoleKind = "guest"
	RoleUnauthorized RoleKind = "unauthorized"
)

// Role is stored as "owner", "admin", "participant", "unauthorized"
// or {"guest":{"chapter_ids":[...]}}.
type Role struct {
	Kind          RoleKind
	GuestChapters []int
}

// IsAdmin reports owner or admin standing.
func (r Role) IsAdmin() bool {
	return r.Kind == RoleOwner || r.Kind == RoleAdmin
}

// IsGuest reports guest standing.
func (r Role) IsGuest() bool {
	return r.Kind == RoleGuest
}

// InChapter reports whether the member takes part in a chapter's scoring.
// Guests only count in the chapters they were invited to.
func (r Role) InChapter(chapterID int) bool {
	switch r.Kind {
	case RoleOwner, RoleAdmin, RoleParticipant:
		return true
	case RoleGuest:
		for _, id := range r.GuestChapters {
			if id == chapterID {
				return true
			}
		}
	}
	return false
}

// CanView applies the chapter visibility gate.
func (r Role) CanView(ch Chapter) bool {
	switch r.Kind {
	case RoleOwner, RoleAdmin:
		return true
	case RoleParticipant:
		return ch.IsVisible
	case RoleGuest:
		return ch.IsVisible && r.InChapter(ch.ID)
	}
	return false
}

type guestRole struct {
	Guest *struct {
		ChapterIDs []int `json:"chapter_ids"`
	} `json:"guest"`
}

func (r Role) MarshalJSON() ([]byte, error) {
	if r.Kind == RoleGuest {
		ids := r.GuestChapters
		if ids == nil {
			ids = []int{}
		}
		return json.Marshal(map[string]any{"guest": map[string]any{"chapter_ids": ids}})
	}
	return json.Marshal(string(r.Kind))
}

func (r *Role) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var kind string
		if err := json.Unmarshal(data, &kind); err != nil {
			return err
		}
		switch RoleKind(kind) {
		case RoleOwner, RoleAdmin, RoleParticipant, RoleUnauthorized:
			*r = Role{Kind: RoleKind(kind)}
			return nil
		}
		return fmt.Errorf("unknown role %q", kind)
	}

	var guest guestRole
	if err := json.Unmarshal(data, &guest); err != nil {
		return err
	}
	if guest.Guest == nil {
		return fmt.Errorf("unknown role %s", data)
	}
	*r = Role{Kind: RoleGuest, GuestChapters: guest.Guest.ChapterIDs}
	return nil
}
