package entity

import (
	"strings"
	"time"
)

// Conversation groups envelopes exchanged between a pair of users.
// Created lazily on the first envelope between a pair; never deleted.
type Conversation struct {
	ID            string         `json:"id" firestore:"id"`
	Participants  []string       `json:"participants" firestore:"participants"`
	EventID       string         `json:"event_id,omitempty" firestore:"eventId,omitempty"`
	EngagementID  string         `json:"engagement_id,omitempty" firestore:"engagementId,omitempty"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// ConversationID canonicalizes a participant pair so both orderings map
// to the same conversation document.
func ConversationID(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return strings.Join([]string{userA, userB}, "_")
}

// HasParticipant reports whether the user is a party to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
