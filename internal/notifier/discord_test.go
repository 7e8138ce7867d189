package notifier

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/ecopoints-api/internal/models"
)

type fakeSender struct {
	channel  string
	messages []string
	err      error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.messages = append(f.messages, content)
	return &discordgo.Message{Content: content}, nil
}

func TestDiscordNotifierMessages(t *testing.T) {
	sender := &fakeSender{}
	n := &DiscordNotifier{session: sender, channelID: "chan-1"}
	user := models.User{Username: "greta", Level: 3, PointsTotal: 215, CO2AvoidedTotal: decimal.RequireFromString("12.5")}

	require.NoError(t, n.NotifyLevelUp(user, 2))
	require.NoError(t, n.NotifyAchievement(user, models.Achievement{Name: "Green habit", Tier: models.TierSilver}))
	require.NoError(t, n.NotifyGroupCreated(models.Group{Name: "Cyclists", Public: false, Description: "Two wheels"}, user))

	assert.Equal(t, "chan-1", sender.channel)
	require.Len(t, sender.messages, 3)
	assert.Contains(t, sender.messages[0], "from level 2 to level 3")
	assert.Contains(t, sender.messages[0], "12.50 kg")
	assert.Contains(t, sender.messages[1], "**Green habit** (silver)")
	assert.Contains(t, sender.messages[2], "private group **Cyclists**")
	assert.Contains(t, sender.messages[2], "Two wheels")
}

func TestDiscordNotifierErrors(t *testing.T) {
	assert.Error(t, NewDiscordNotifier(nil, "chan").NotifyLevelUp(models.User{}, 1))
	assert.Error(t, (&DiscordNotifier{session: &fakeSender{}}).NotifyLevelUp(models.User{}, 1))

	failing := &DiscordNotifier{session: &fakeSender{err: errors.New("gateway down")}, channelID: "chan"}
	err := failing.NotifyAchievement(models.User{}, models.Achievement{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
}

func TestNewDiscordSessionWithoutToken(t *testing.T) {
	session, err := NewDiscordSession("")
	require.NoError(t, err)
	assert.Nil(t, session)
}
