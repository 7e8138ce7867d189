package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/ecopoints-api/internal/models"
)

// Notifier announces community milestones. Failures never roll back the
// operation that triggered them.
type Notifier interface {
	NotifyLevelUp(user models.User, previousLevel int) error
	NotifyAchievement(user models.User, achievement models.Achievement) error
	NotifyGroupCreated(group models.Group, creator models.User) error
}

// messageSender is the part of *discordgo.Session the notifier uses.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   messageSender
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	n := &DiscordNotifier{channelID: channelID}
	if session != nil {
		n.session = session
	}
	return n
}

// NewDiscordSession opens a bot session. An empty token yields a nil session.
func NewDiscordSession(botToken string) (*discordgo.Session, error) {
	if botToken == "" {
		return nil, nil
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return session, nil
}

func (n *DiscordNotifier) NotifyLevelUp(user models.User, previousLevel int) error {
	message := fmt.Sprintf("🌱 **Level up!**\n**%s** climbed from level %d to level %d with %d points and %s kg of CO₂ avoided.",
		user.Username,
		previousLevel,
		user.Level,
		user.PointsTotal,
		user.CO2AvoidedTotal.StringFixed(2),
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyAchievement(user models.User, achievement models.Achievement) error {
	message := fmt.Sprintf("🏅 **Achievement unlocked**\n**%s** earned **%s** (%s)",
		user.Username,
		achievement.Name,
		achievement.Tier,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyGroupCreated(group models.Group, creator models.User) error {
	visibility := "public"
	if !group.Public {
		visibility = "private"
	}
	message := fmt.Sprintf("🌍 **New group**\n**%s** started the %s group **%s**", creator.Username, visibility, group.Name)
	if group.Description != "" {
		message += "\n" + group.Description
	}
	return n.send(message)
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// Nop discards every notification.
type Nop struct{}

func (Nop) NotifyLevelUp(models.User, int) error                   { return nil }
func (Nop) NotifyAchievement(models.User, models.Achievement) error { return nil }
func (Nop) NotifyGroupCreated(models.Group, models.User) error      { return nil }
