package ws

import "encoding/json"

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "add_friend"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// NewEnvelope marshals body into an outbound envelope. A marshal failure is a
// programming error in the body type, so the body is dropped, not the frame.
func NewEnvelope(event string, body any) Envelope {
	raw, err := json.Marshal(body)
	if err != nil {
		return Envelope{Event: event}
	}
	return Envelope{Event: event, Body: raw}
}

// ───────────────────────────── Inbound bodies ────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
}

type AddFriendRequest struct {
	FriendName string `json:"friend_name" validate:"required"`
}

type CreateGroupRequest struct {
	GroupName string   `json:"group_name" validate:"required"`
	Members   []string `json:"members"`
}

type GroupMessageRequest struct {
	GroupName string `json:"group_name" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

type PrivateMessageRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type RandomMatchRequest struct {
	GroupName string `json:"group_name" validate:"required"`
}

// ───────────────────────────── Outbound bodies ───────────────────────────────

type LoginSuccessBody struct {
	Username string `json:"username"`
}

type FriendAddedBody struct {
	FriendName string `json:"friend_name"`
}

type FriendNotFoundBody struct {
	FriendName string `json:"friend_name"`
}

type GroupCreatedBody struct {
	GroupName string   `json:"group_name"`
	Members   []string `json:"members"`
}

type GroupMessageBody struct {
	GroupName string `json:"group_name"`
	From      string `json:"from"`
	Text      string `json:"text"`
}

type PrivateMessageBody struct {
	From     string `json:"from"`
	Text     string `json:"text"`
	SelfEcho bool   `json:"self_echo"`
}

type MatchedBody struct {
	Counterpart   string   `json:"counterpart"`
	CommonFriends []string `json:"common_friends"`
}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
