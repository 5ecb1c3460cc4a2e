// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Object types used on targets and attachments.
const (
	TypeRoom    = "room"
	TypePrivate = "private"
	TypeChannel = "channel"
	TypeUser    = "user"
	TypeGlobal  = "global"
	TypeACL     = "acl"
	TypeHistory = "history"
	TypeMessage = "message"
)

// ErrMalformed is returned when a frame cannot be decoded into an Activity.
var ErrMalformed = errors.New("malformed activity")

// Attachment is a typed key/value pair used for session claims, ACL entries,
// message ids on read/received and similar lists.
type Attachment struct {
	ObjectType  string `json:"objectType,omitempty"`
	ID          string `json:"id,omitempty"`
	Content     string `json:"content,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	URL         string `json:"url,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Published   string `json:"published,omitempty"`
}

// Entity is the common shape of actor, object, target and provider.
type Entity struct {
	ID          string       `json:"id,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
	ObjectType  string       `json:"objectType,omitempty"`
	URL         string       `json:"url,omitempty"`
	Content     string       `json:"content,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Activity is the pre-parsed, strongly typed event record. Handlers and
// validators operate on this type only.
type Activity struct {
	ID        string  `json:"id,omitempty"`
	Verb      Verb    `json:"verb"`
	Published string  `json:"published,omitempty"`
	Actor     Entity  `json:"actor"`
	Object    *Entity `json:"object,omitempty"`
	Target    *Entity `json:"target,omitempty"`
	Provider  *Entity `json:"provider,omitempty"`
	Title     string  `json:"title,omitempty"`

	// Revision is the inter-node hop counter; only set on internal events.
	Revision int `json:"revision,omitempty"`
	// Origin is the node id that first published an internal event.
	Origin string `json:"origin,omitempty"`
}

// TimeFormat is the layout of the published field.
const TimeFormat = "2006-01-02T15:04:05Z"

// New returns an activity with a fresh id and published timestamp.
func New(verb Verb) *Activity {
	return &Activity{
		ID:        uuid.NewString(),
		Verb:      verb,
		Published: Now(),
	}
}

// Now formats the current UTC time the way published fields are written.
func Now() string {
	return time.Now().UTC().Format(TimeFormat)
}

// Parse decodes a client or bus frame. The verb is normalised.
func Parse(data []byte) (*Activity, error) {
	var a Activity
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	a.Verb = ParseVerb(string(a.Verb))
	return &a, nil
}

// Encode serialises the activity as JSON.
func (a *Activity) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// Stamp overwrites id and published with server-assigned values. Clients may
// never choose either.
func (a *Activity) Stamp() {
	a.ID = uuid.NewString()
	a.Published = Now()
}

// Clone returns a deep copy of the activity.
func (a *Activity) Clone() *Activity {
	c := *a
	c.Actor = a.Actor.clone()
	if a.Object != nil {
		o := a.Object.clone()
		c.Object = &o
	}
	if a.Target != nil {
		t := a.Target.clone()
		c.Target = &t
	}
	if a.Provider != nil {
		p := a.Provider.clone()
		c.Provider = &p
	}
	return &c
}

func (e Entity) clone() Entity {
	if e.Attachments != nil {
		e.Attachments = append([]Attachment(nil), e.Attachments...)
	}
	return e
}

// TargetID returns the target id or "" when no target is set.
func (a *Activity) TargetID() string {
	if a.Target == nil {
		return ""
	}
	return a.Target.ID
}

// TargetType returns the target object type or "".
func (a *Activity) TargetType() string {
	if a.Target == nil {
		return ""
	}
	return a.Target.ObjectType
}

// ObjectID returns the object id or "".
func (a *Activity) ObjectID() string {
	if a.Object == nil {
		return ""
	}
	return a.Object.ID
}

// ObjectURL returns the object url or "".
func (a *Activity) ObjectURL() string {
	if a.Object == nil {
		return ""
	}
	return a.Object.URL
}

// ObjectContent returns the (still encoded) object content or "".
func (a *Activity) ObjectContent() string {
	if a.Object == nil {
		return ""
	}
	return a.Object.Content
}

// ObjectAttachments returns the object attachments or nil.
func (a *Activity) ObjectAttachments() []Attachment {
	if a.Object == nil {
		return nil
	}
	return a.Object.Attachments
}

// ProviderURL returns the provider url (the channel id on chat messages).
func (a *Activity) ProviderURL() string {
	if a.Provider == nil {
		return ""
	}
	return a.Provider.URL
}

// EnsureObject returns the object entity, allocating it if needed.
func (a *Activity) EnsureObject() *Entity {
	if a.Object == nil {
		a.Object = &Entity{}
	}
	return a.Object
}

// EnsureTarget returns the target entity, allocating it if needed.
func (a *Activity) EnsureTarget() *Entity {
	if a.Target == nil {
		a.Target = &Entity{}
	}
	return a.Target
}

// EnsureProvider returns the provider entity, allocating it if needed.
func (a *Activity) EnsureProvider() *Entity {
	if a.Provider == nil {
		a.Provider = &Entity{}
	}
	return a.Provider
}

// AttachmentMap flattens actor attachments into objectType -> content.
// Login claims are sent this way.
func (e Entity) AttachmentMap() map[string]string {
	out := make(map[string]string, len(e.Attachments))
	for _, a := range e.Attachments {
		if a.ObjectType == "" {
			continue
		}
		out[a.ObjectType] = a.Content
	}
	return out
}
