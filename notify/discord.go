// Package notify posts live check-in activity to a Discord channel.
// file: notify/discord.go
package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"go-event-checkin/i18n"
	"go-event-checkin/logger"
	"go-event-checkin/models"
	"go-event-checkin/websocket"
	"go-event-checkin/worker"
)

// ChannelSender is the part of *discordgo.Session the announcer uses.
type ChannelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Subscriber is the subscribing side of the hub.
type Subscriber interface {
	Subscribe(fn func(websocket.Message)) (unsubscribe func())
}

// Submitter runs a task off the hub's goroutine.
type Submitter interface {
	Submit(name string, task worker.Task) bool
}

// Translator renders announcement text.
type Translator interface {
	T(locale, key string, data map[string]any) string
}

var (
	_ ChannelSender = (*discordgo.Session)(nil)
	_ Subscriber    = (*websocket.Hub)(nil)
	_ Submitter     = (*worker.Queue)(nil)
)

// NewSession opens a REST-only bot session. No gateway connection is needed
// to post messages.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return s, nil
}

// Announcer turns hub messages into channel posts.
type Announcer struct {
	sender    ChannelSender
	channelID string
	tr        Translator
	locale    string
	submit    Submitter
}

// NewAnnouncer builds an announcer posting to channelID.
func NewAnnouncer(sender ChannelSender, channelID string, tr Translator, locale string, submit Submitter) *Announcer {
	return &Announcer{sender: sender, channelID: channelID, tr: tr, locale: locale, submit: submit}
}

// Attach subscribes the announcer to hub and returns the detach func.
func (a *Announcer) Attach(hub Subscriber) func() {
	return hub.Subscribe(a.Handle)
}

// Handle formats msg and queues the post. Topics without an announcement
// are ignored.
func (a *Announcer) Handle(msg websocket.Message) {
	text, ok := a.format(msg)
	if !ok {
		return
	}
	a.submit.Submit("discord:"+msg.Topic, func(ctx context.Context) {
		if _, err := a.sender.ChannelMessageSend(a.channelID, text); err != nil {
			logger.Error.Printf("[Announcer.Handle] post %s for event=%s: %v", msg.Topic, msg.EventID, err)
			return
		}
		logger.Debug.Printf("[Announcer.Handle] posted %s for event=%s", msg.Topic, msg.EventID)
	})
}

func (a *Announcer) format(msg websocket.Message) (string, bool) {
	switch msg.Topic {
	case websocket.TopicScanUpdated:
		u, ok := msg.Data.(*models.ScanUpdate)
		if !ok || u.Participant == nil {
			return "", false
		}
		verb := "entered"
		if u.Action == models.ActionExit {
			verb = "left"
		}
		return a.tr.T(a.locale, i18n.ScanAnnouncement, map[string]any{
			"Name":       u.Participant.Name,
			"Action":     verb,
			"Checkpoint": u.CheckpointName,
			"Count":      u.ActiveCount,
		}), true

	case websocket.TopicCheckpointCreated, websocket.TopicCheckpointUpdated:
		cp, ok := msg.Data.(*models.Checkpoint)
		if !ok {
			return "", false
		}
		change := "created"
		if msg.Topic == websocket.TopicCheckpointUpdated {
			change = "updated"
		}
		return a.tr.T(a.locale, i18n.CheckpointAnnouncement, map[string]any{"Name": cp.Name, "Change": change}), true

	case websocket.TopicCheckpointDeleted:
		data, ok := msg.Data.(map[string]string)
		if !ok {
			return "", false
		}
		return a.tr.T(a.locale, i18n.CheckpointAnnouncement, map[string]any{"Name": data["id"], "Change": "deleted"}), true
	}
	return "", false
}
