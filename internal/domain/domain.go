package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Event struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	CreatedAt time.Time `json:"createdAt"`
}

type Day struct {
	ID      uuid.UUID `json:"id"`
	EventID uuid.UUID `json:"eventId"`
	Label   string    `json:"label"`
	Date    time.Time `json:"date"`
}

type Stage struct {
	ID      uuid.UUID `json:"id"`
	EventID uuid.UUID `json:"eventId"`
	Name    string    `json:"name"`
}

// Act times are "HH:MM" tokens with the extended hour range 00-29; hours
// 24 and above denote the following calendar day so that late-night sets
// sort lexically after the evening ones.
type Act struct {
	ID        uuid.UUID `json:"id"`
	DayID     uuid.UUID `json:"dayId"`
	StageID   uuid.UUID `json:"stageId"`
	Name      string    `json:"name"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

type Group struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"eventId"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is a group membership row joined with the user's display name.
type Member struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type Selection struct {
	UserID    uuid.UUID `json:"userId"`
	GroupID   uuid.UUID `json:"groupId"`
	ActID     uuid.UUID `json:"actId"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

// Invite is a short-lived redeemable code admitting a user to a group.
// Invites live in Redis with a TTL and are never persisted to Postgres.
type Invite struct {
	Code      string    `json:"code"`
	GroupID   uuid.UUID `json:"groupId"`
	CreatedBy uuid.UUID `json:"createdBy"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Lineup aggregates an event's days, stages and acts for a single fetch.
type Lineup struct {
	Event  Event   `json:"event"`
	Days   []Day   `json:"days"`
	Stages []Stage `json:"stages"`
	Acts   []Act   `json:"acts"`
}

// --- Shared value types ---

// Identity is the verified principal carried by a bearer token.
type Identity struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
}

// PlaylistEntry is one ranked act in a generated playlist.
type PlaylistEntry struct {
	ActName    string `json:"actName"`
	SelectedBy int    `json:"selectedBy"`
}

// PlaylistRef points at a playlist created on an external provider.
type PlaylistRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Playlist is the ranked track list built from a group's selections. External
// is set only when a playlist provider is configured.
type Playlist struct {
	Name     string          `json:"name"`
	Tracks   []PlaylistEntry `json:"tracks"`
	External *PlaylistRef    `json:"external,omitempty"`
}

// --- Room events ---

// Room event type tags carried in the "type" field of broadcast frames.
const (
	EventTypeSelectionAdded   = "selection_added"
	EventTypeSelectionRemoved = "selection_removed"
)

// SelectionAddedEvent is the room frame announcing that a member picked an act.
type SelectionAddedEvent struct {
	Type     string    `json:"type"`
	UserID   uuid.UUID `json:"userId"`
	ActID    uuid.UUID `json:"actId"`
	GroupID  uuid.UUID `json:"groupId"`
	UserName string    `json:"userName"`
	Priority int       `json:"priority"`
}

// NewSelectionAddedEvent builds the frame for a stored selection. The display
// name comes from the caller's token so no user lookup is needed.
func NewSelectionAddedEvent(sel Selection, userName string) SelectionAddedEvent {
	return SelectionAddedEvent{
		Type:     EventTypeSelectionAdded,
		UserID:   sel.UserID,
		ActID:    sel.ActID,
		GroupID:  sel.GroupID,
		UserName: userName,
		Priority: sel.Priority,
	}
}

// SelectionRemovedEvent is the room frame announcing that a member dropped an act.
type SelectionRemovedEvent struct {
	Type    string    `json:"type"`
	UserID  uuid.UUID `json:"userId"`
	ActID   uuid.UUID `json:"actId"`
	GroupID uuid.UUID `json:"groupId"`
}

// NewSelectionRemovedEvent builds the frame for a deleted selection.
func NewSelectionRemovedEvent(userID, groupID, actID uuid.UUID) SelectionRemovedEvent {
	return SelectionRemovedEvent{
		Type:    EventTypeSelectionRemoved,
		UserID:  userID,
		ActID:   actID,
		GroupID: groupID,
	}
}

// --- Interfaces ---

// TokenVerifier validates a bearer token into the identity it carries.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	Upsert(ctx context.Context, userID uuid.UUID, displayName, email string) (*User, error)
}

// EventRepository abstracts festival lineup persistence.
type EventRepository interface {
	Create(ctx context.Context, name, venue string) (*Event, error)
	GetByID(ctx context.Context, eventID uuid.UUID) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	AddDay(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*Day, error)
	AddStage(ctx context.Context, eventID uuid.UUID, name string) (*Stage, error)
	AddAct(ctx context.Context, dayID, stageID uuid.UUID, name, startTime, endTime string) (*Act, error)
	GetDay(ctx context.Context, dayID uuid.UUID) (*Day, error)
	GetStage(ctx context.Context, stageID uuid.UUID) (*Stage, error)
	GetAct(ctx context.Context, actID uuid.UUID) (*Act, error)
	GetLineup(ctx context.Context, eventID uuid.UUID) (*Lineup, error)
}

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	Create(ctx context.Context, eventID, ownerID uuid.UUID, name string) (*Group, error)
	GetByID(ctx context.Context, groupID uuid.UUID) (*Group, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Group, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error)
}

// SelectionRepository abstracts act selection persistence.
type SelectionRepository interface {
	Upsert(ctx context.Context, userID, groupID, actID uuid.UUID, priority int) (*Selection, error)
	Delete(ctx context.Context, userID, groupID, actID uuid.UUID) error
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Selection, error)
	// ListEntries returns the selections x acts join for the conflict
	// detector, in selection insertion order.
	ListEntries(ctx context.Context, groupID uuid.UUID) ([]SelectionEntry, error)
}

// InviteStore abstracts the TTL-backed invite code store.
type InviteStore interface {
	Put(ctx context.Context, invite Invite, ttl time.Duration) error
	Get(ctx context.Context, code string) (*Invite, error)
}

// SelectionBroadcaster fans a selection change out to a group's live room.
// Implementations must be best-effort and non-blocking; a failed or skipped
// delivery never surfaces as an error to the caller.
type SelectionBroadcaster interface {
	Broadcast(groupID uuid.UUID, event any, excludeUserID uuid.UUID)
}

// PresenceSource reports which users currently hold a live connection in a
// group's room.
type PresenceSource interface {
	Presence(groupID uuid.UUID) []uuid.UUID
}

// PlaylistCreator pushes a ranked artist list to an external music provider.
// Wiring one is optional; the playlist endpoint degrades to the local track
// list when none is configured.
type PlaylistCreator interface {
	CreatePlaylist(ctx context.Context, name string, artists []string) (*PlaylistRef, error)
}

// AppService is the application layer contract. HTTP handlers route all
// operations through here.
type AppService interface {
	CreateEvent(ctx context.Context, name, venue string) (*Event, error)
	GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	AddDay(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*Day, error)
	AddStage(ctx context.Context, eventID uuid.UUID, name string) (*Stage, error)
	AddAct(ctx context.Context, eventID, dayID, stageID uuid.UUID, name, startTime, endTime string) (*Act, error)
	GetLineup(ctx context.Context, eventID uuid.UUID) (*Lineup, error)

	CreateGroup(ctx context.Context, caller Identity, eventID uuid.UUID, name string) (*Group, error)
	GetGroup(ctx context.Context, callerID, groupID uuid.UUID) (*Group, []Member, error)
	ListGroups(ctx context.Context, callerID uuid.UUID) ([]Group, error)
	CreateInvite(ctx context.Context, callerID, groupID uuid.UUID) (*Invite, error)
	RedeemInvite(ctx context.Context, caller Identity, code string) (*Group, error)

	PutSelection(ctx context.Context, caller Identity, groupID, actID uuid.UUID, priority int) (*Selection, error)
	RemoveSelection(ctx context.Context, callerID, groupID, actID uuid.UUID) error
	ListSelections(ctx context.Context, callerID, groupID uuid.UUID) ([]Selection, error)
	GroupConflicts(ctx context.Context, callerID, groupID uuid.UUID) ([]Conflict, error)
	GroupPresence(ctx context.Context, callerID, groupID uuid.UUID) ([]uuid.UUID, error)
	BuildPlaylist(ctx context.Context, callerID, groupID uuid.UUID, name string) (*Playlist, error)
}
