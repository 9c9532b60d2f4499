package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
)

const commandName = "vanity"

var (
	errOutsideServer     = errors.New("command used outside a server")
	errMissingSubcommand = errors.New("missing subcommand")
)

// Subcommands of /vanity.
const (
	SubcommandRole      = "role"
	SubcommandChannel   = "channel"
	SubcommandMessage   = "message"
	SubcommandResetPing = "resetping"
)

type configWriter interface {
	SetRole(ctx context.Context, communityID, roleID, actor string) (*models.CommunityConfig, error)
	SetChannel(ctx context.Context, communityID, channelID, actor string) (*models.CommunityConfig, error)
	SetAnnounceText(ctx context.Context, communityID, text, actor string) (*models.CommunityConfig, error)
}

type ledgerResetter interface {
	Reset(ctx context.Context, communityID string) (int64, error)
}

// VanityCommand is a parsed /vanity invocation.
type VanityCommand struct {
	Subcommand  string
	CommunityID string
	Actor       string
	Value       string
	Permitted   bool
}

// CommandHandler serves the /vanity admin commands.
type CommandHandler struct {
	configs configWriter
	ledger  ledgerResetter
	logger  *zap.Logger
}

// NewCommandHandler constructs a CommandHandler.
func NewCommandHandler(configs configWriter, ledger ledgerResetter, logger *zap.Logger) *CommandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandHandler{configs: configs, ledger: ledger, logger: logger}
}

// Commands returns the application command definitions.
func Commands() []*discordgo.ApplicationCommand {
	manageServer := int64(discordgo.PermissionManageServer)
	dmPermission := false
	return []*discordgo.ApplicationCommand{{
		Name:                     commandName,
		Description:              "Configure vanity tag rewards",
		DefaultMemberPermissions: &manageServer,
		DMPermission:             &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandRole,
				Description: "Role granted to members repping the tag",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Target role",
					Required:    true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandChannel,
				Description: "Channel receiving announcements",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Announcement channel",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandMessage,
				Description: "Announcement body, use {nl} for new lines",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Embed body",
					Required:    true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandResetPing,
				Description: "Forget who was already announced in this server",
			},
		},
	}}
}

// Handle is registered as the gateway interaction handler.
func (h *CommandHandler) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != commandName {
		return
	}
	cmd, err := ParseVanityCommand(i.GuildID, i.Member, data)
	var reply string
	switch {
	case errors.Is(err, errOutsideServer):
		reply = "This command only works inside a server."
	case err != nil:
		reply = "Unknown subcommand."
	default:
		reply = h.Dispatch(context.Background(), cmd)
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Warn("interaction reply failed", zap.String("community_id", i.GuildID), zap.Error(err))
	}
}

// ParseVanityCommand extracts the subcommand and its single argument.
func ParseVanityCommand(guildID string, member *discordgo.Member, data discordgo.ApplicationCommandInteractionData) (VanityCommand, error) {
	if guildID == "" || member == nil {
		return VanityCommand{}, errOutsideServer
	}
	if len(data.Options) == 0 {
		return VanityCommand{}, errMissingSubcommand
	}
	sub := data.Options[0]
	cmd := VanityCommand{
		Subcommand:  sub.Name,
		CommunityID: guildID,
		Permitted:   member.Permissions&discordgo.PermissionManageServer != 0,
	}
	if member.User != nil {
		cmd.Actor = member.User.ID
	}
	if len(sub.Options) > 0 {
		if value, ok := sub.Options[0].Value.(string); ok {
			cmd.Value = value
		}
	}
	return cmd, nil
}

// Dispatch applies a parsed command and returns the reply text.
func (h *CommandHandler) Dispatch(ctx context.Context, cmd VanityCommand) string {
	if !cmd.Permitted {
		return "You need **Manage Server** permission."
	}

	var err error
	reply := ""
	switch cmd.Subcommand {
	case SubcommandRole:
		_, err = h.configs.SetRole(ctx, cmd.CommunityID, cmd.Value, cmd.Actor)
		reply = "✅ Role set."
	case SubcommandChannel:
		_, err = h.configs.SetChannel(ctx, cmd.CommunityID, cmd.Value, cmd.Actor)
		reply = "✅ Channel set."
	case SubcommandMessage:
		_, err = h.configs.SetAnnounceText(ctx, cmd.CommunityID, cmd.Value, cmd.Actor)
		reply = "✅ Embed body updated."
	case SubcommandResetPing:
		var removed int64
		removed, err = h.ledger.Reset(ctx, cmd.CommunityID)
		reply = fmt.Sprintf("✅ Ping memory cleared for this guild (%d removed).", removed)
	default:
		return "Unknown subcommand."
	}
	if err != nil {
		h.logger.Warn("vanity command failed",
			zap.String("community_id", cmd.CommunityID),
			zap.String("subcommand", cmd.Subcommand),
			zap.Error(err))
		return "❌ " + appErrors.FromError(err).Message
	}
	h.logger.Info("vanity command applied",
		zap.String("community_id", cmd.CommunityID),
		zap.String("subcommand", cmd.Subcommand),
		zap.String("actor", cmd.Actor))
	return reply
}
