package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
)

type recordingConfigs struct {
	calls []string
	err   error
}

func (r *recordingConfigs) SetRole(ctx context.Context, communityID, roleID, actor string) (*models.CommunityConfig, error) {
	r.calls = append(r.calls, "role:"+communityID+":"+roleID+":"+actor)
	return &models.CommunityConfig{CommunityID: communityID}, r.err
}

func (r *recordingConfigs) SetChannel(ctx context.Context, communityID, channelID, actor string) (*models.CommunityConfig, error) {
	r.calls = append(r.calls, "channel:"+communityID+":"+channelID)
	return &models.CommunityConfig{CommunityID: communityID}, r.err
}

func (r *recordingConfigs) SetAnnounceText(ctx context.Context, communityID, text, actor string) (*models.CommunityConfig, error) {
	r.calls = append(r.calls, "message:"+communityID+":"+text)
	return &models.CommunityConfig{CommunityID: communityID}, r.err
}

type recordingLedger struct {
	resets []string
}

func (r *recordingLedger) Reset(ctx context.Context, communityID string) (int64, error) {
	r.resets = append(r.resets, communityID)
	return 3, nil
}

func subcommand(name string, value interface{}) discordgo.ApplicationCommandInteractionData {
	sub := &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionSubCommand}
	if value != nil {
		sub.Options = []*discordgo.ApplicationCommandInteractionDataOption{{Name: "arg", Value: value}}
	}
	return discordgo.ApplicationCommandInteractionData{Name: commandName, Options: []*discordgo.ApplicationCommandInteractionDataOption{sub}}
}

func admin() *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: "admin-1"}, Permissions: discordgo.PermissionManageServer}
}

func TestParseVanityCommand(t *testing.T) {
	cmd, err := ParseVanityCommand("g1", admin(), subcommand(SubcommandRole, "555"))
	require.NoError(t, err)
	assert.Equal(t, VanityCommand{Subcommand: SubcommandRole, CommunityID: "g1", Actor: "admin-1", Value: "555", Permitted: true}, cmd)

	cmd, err = ParseVanityCommand("g1", &discordgo.Member{User: &discordgo.User{ID: "u"}}, subcommand(SubcommandResetPing, nil))
	require.NoError(t, err)
	assert.False(t, cmd.Permitted)

	_, err = ParseVanityCommand("", admin(), subcommand(SubcommandRole, "555"))
	assert.ErrorIs(t, err, errOutsideServer)
	_, err = ParseVanityCommand("g1", admin(), discordgo.ApplicationCommandInteractionData{Name: commandName})
	assert.ErrorIs(t, err, errMissingSubcommand)
}

func TestDispatch(t *testing.T) {
	configs := &recordingConfigs{}
	ledger := &recordingLedger{}
	h := NewCommandHandler(configs, ledger, nil)
	ctx := context.Background()

	assert.Equal(t, "✅ Role set.", h.Dispatch(ctx, VanityCommand{Subcommand: SubcommandRole, CommunityID: "g1", Actor: "a", Value: "5", Permitted: true}))
	assert.Equal(t, "✅ Channel set.", h.Dispatch(ctx, VanityCommand{Subcommand: SubcommandChannel, CommunityID: "g1", Value: "6", Permitted: true}))
	assert.Equal(t, "✅ Embed body updated.", h.Dispatch(ctx, VanityCommand{Subcommand: SubcommandMessage, CommunityID: "g1", Value: "hi{nl}there", Permitted: true}))
	assert.Contains(t, h.Dispatch(ctx, VanityCommand{Subcommand: SubcommandResetPing, CommunityID: "g1", Permitted: true}), "3 removed")
	assert.Equal(t, []string{"role:g1:5:a", "channel:g1:6", "message:g1:hi{nl}there"}, configs.calls)
	assert.Equal(t, []string{"g1"}, ledger.resets)

	assert.Equal(t, "You need **Manage Server** permission.", h.Dispatch(ctx, VanityCommand{Subcommand: SubcommandRole, CommunityID: "g1", Value: "5"}))
	assert.Len(t, configs.calls, 3)
}

func TestDispatchReportsFailures(t *testing.T) {
	configs := &recordingConfigs{err: appErrors.Clone(appErrors.ErrValidation, "role_id must be a numeric id")}
	h := NewCommandHandler(configs, &recordingLedger{}, nil)

	reply := h.Dispatch(context.Background(), VanityCommand{Subcommand: SubcommandRole, CommunityID: "g1", Value: "x", Permitted: true})
	assert.Equal(t, "❌ role_id must be a numeric id", reply)

	configs.err = errors.New("boom")
	reply = h.Dispatch(context.Background(), VanityCommand{Subcommand: SubcommandChannel, CommunityID: "g1", Value: "1", Permitted: true})
	assert.Equal(t, "❌ internal server error", reply)
}

func TestCommandsDefinition(t *testing.T) {
	cmds := Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, commandName, cmds[0].Name)
	names := make([]string, 0, len(cmds[0].Options))
	for _, opt := range cmds[0].Options {
		names = append(names, opt.Name)
	}
	assert.Equal(t, []string{SubcommandRole, SubcommandChannel, SubcommandMessage, SubcommandResetPing}, names)
}
