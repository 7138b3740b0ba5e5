package service

import "github.com/cwrk-planet/space-service/internal/domain"

type EventType string

const (
	EventSpaceUpdated EventType = "space_updated"
	EventSpaceEnded   EventType = "space_ended"
)

type Event struct {
	Type  EventType     `json:"type"`
	Space *domain.Space `json:"space"`
}

// Publisher receives an event after every successful space command.
type Publisher interface {
	Publish(ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
