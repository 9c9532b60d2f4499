// Package directory adapts the Discord gateway and REST API to the
// reconciliation engine.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
)

const (
	memberPageSize = 1000
	embedColor     = 0x2f3136
)

// StatusSink receives normalized presence changes.
type StatusSink interface {
	HandleStatusChange(ctx context.Context, event models.StatusChange) error
}

// Config configures the gateway session.
type Config struct {
	Token            string
	RegisterCommands bool
}

// Discord implements the engine's Directory on top of a discordgo session.
type Discord struct {
	session  *discordgo.Session
	logger   *zap.Logger
	cfg      Config
	commands *CommandHandler
	sink     StatusSink
	ctx      context.Context
}

// New prepares a session with the intents needed to observe presences and
// members. The gateway is not opened until Open.
func New(cfg Config, logger *zap.Logger) (*Discord, error) {
	if cfg.Token == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "DISCORD_TOKEN is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences
	session.State.TrackPresences = true
	session.State.TrackMembers = true

	return &Discord{session: session, logger: logger, cfg: cfg, ctx: context.Background()}, nil
}

// Bind attaches the presence sink and the slash command handler. It must be
// called before Open.
func (d *Discord) Bind(sink StatusSink, commands *CommandHandler) {
	d.sink = sink
	d.commands = commands
}

// Open connects to the gateway. ctx bounds the handlers' downstream work.
func (d *Discord) Open(ctx context.Context) error {
	d.ctx = ctx
	d.session.AddHandler(d.onReady)
	d.session.AddHandler(d.onPresenceUpdate)
	if d.commands != nil {
		d.session.AddHandler(d.commands.Handle)
	}
	if err := d.session.Open(); err != nil {
		return appErrors.WrapAs(appErrors.ErrTransientDirectory, err, "failed to open gateway session")
	}
	return nil
}

// Close disconnects from the gateway.
func (d *Discord) Close() error {
	return d.session.Close()
}

// Ready reports whether the gateway handshake completed.
func (d *Discord) Ready() bool {
	return d.session.DataReady
}

func (d *Discord) onReady(s *discordgo.Session, r *discordgo.Ready) {
	d.logger.Info("gateway ready",
		zap.String("bot", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))
	if !d.cfg.RegisterCommands || d.commands == nil {
		return
	}
	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, "", Commands()); err != nil {
		d.logger.Error("slash command registration failed", zap.Error(err))
		return
	}
	d.logger.Info("slash commands registered")
}

func (d *Discord) onPresenceUpdate(_ *discordgo.Session, p *discordgo.PresenceUpdate) {
	if d.sink == nil || p.User == nil || p.GuildID == "" {
		return
	}
	event := StatusChangeFromPresence(p.GuildID, &p.Presence)
	if err := d.sink.HandleStatusChange(d.ctx, event); err != nil {
		d.logger.Warn("presence update not processed",
			zap.String("community_id", p.GuildID),
			zap.String("user_id", p.User.ID),
			zap.Error(err))
	}
}

// FetchMember returns the live view of a member, preferring the gateway
// state cache.
func (d *Discord) FetchMember(ctx context.Context, communityID, userID string) (*models.Member, error) {
	member, err := d.session.State.Member(communityID, userID)
	if err != nil {
		member, err = d.session.GuildMember(communityID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, classify(err)
		}
	}
	presence, _ := d.session.State.Presence(communityID, userID)
	return d.memberView(communityID, member, presence), nil
}

// memberView converts under the state read lock. The state hands out the
// same pointers it updates in place on gateway events.
func (d *Discord) memberView(communityID string, member *discordgo.Member, presence *discordgo.Presence) *models.Member {
	d.session.State.RLock()
	defer d.session.State.RUnlock()
	return MemberFromDiscord(communityID, member, presence)
}

// ListMembers pages through every member of a community.
func (d *Discord) ListMembers(ctx context.Context, communityID string) ([]models.Member, error) {
	var (
		out   []models.Member
		after string
	)
	for {
		page, err := d.session.GuildMembers(communityID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, classify(err)
		}
		for _, member := range page {
			if member.User == nil {
				continue
			}
			presence, _ := d.session.State.Presence(communityID, member.User.ID)
			out = append(out, *d.memberView(communityID, member, presence))
			after = member.User.ID
		}
		if len(page) < memberPageSize {
			return out, nil
		}
	}
}

// SharedCommunities lists the communities the bot shares with userID.
func (d *Discord) SharedCommunities(ctx context.Context, userID string) ([]string, error) {
	d.session.State.RLock()
	guildIDs := make([]string, 0, len(d.session.State.Guilds))
	for _, guild := range d.session.State.Guilds {
		guildIDs = append(guildIDs, guild.ID)
	}
	d.session.State.RUnlock()

	var shared []string
	for _, guildID := range guildIDs {
		if _, err := d.session.State.Member(guildID, userID); err == nil {
			shared = append(shared, guildID)
			continue
		}
		_, err := d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		switch {
		case err == nil:
			shared = append(shared, guildID)
		case errors.Is(classify(err), appErrors.ErrUnknownUser):
		default:
			return nil, classify(err)
		}
	}
	return shared, nil
}

// AddRole grants roleID. Discord treats re-adding a held role as success.
func (d *Discord) AddRole(ctx context.Context, communityID, userID, roleID string) error {
	if err := d.session.GuildMemberRoleAdd(communityID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason("Vanity detected")); err != nil {
		return classify(err)
	}
	return nil
}

// RemoveRole revokes roleID. Removing an unheld role is a success.
func (d *Discord) RemoveRole(ctx context.Context, communityID, userID, roleID string) error {
	if err := d.session.GuildMemberRoleRemove(communityID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason("Vanity removed")); err != nil {
		return classify(err)
	}
	return nil
}

// SendMessage posts the announcement embed to channelID.
func (d *Discord) SendMessage(ctx context.Context, communityID, channelID string, msg models.Announcement) error {
	iconURL := ""
	if guild, err := d.session.State.Guild(communityID); err == nil {
		iconURL = guild.IconURL("256")
	}
	_, err := d.session.ChannelMessageSendComplex(channelID, MessageFromAnnouncement(msg, iconURL, time.Now()), discordgo.WithContext(ctx))
	if err != nil {
		return classify(err)
	}
	return nil
}

// StatusChangeFromPresence normalizes a gateway presence.
func StatusChangeFromPresence(guildID string, p *discordgo.Presence) models.StatusChange {
	event := models.StatusChange{CommunityID: guildID, At: time.Now().UTC()}
	if p == nil {
		event.Offline = true
		return event
	}
	if p.User != nil {
		event.UserID = p.User.ID
	}
	event.Offline = p.Status == discordgo.StatusOffline || p.Status == discordgo.StatusInvisible || p.Status == ""
	event.Status = CustomStatus(p.Activities)
	return event
}

// CustomStatus extracts the custom status text, nil when none is set.
func CustomStatus(activities []*discordgo.Activity) *string {
	for _, activity := range activities {
		if activity == nil || activity.Type != discordgo.ActivityTypeCustom || activity.State == "" {
			continue
		}
		state := activity.State
		return &state
	}
	return nil
}

// MemberFromDiscord converts a guild member and its presence.
func MemberFromDiscord(guildID string, member *discordgo.Member, presence *discordgo.Presence) *models.Member {
	out := &models.Member{CommunityID: guildID}
	if member != nil {
		out.RoleIDs = append([]string(nil), member.Roles...)
		if member.User != nil {
			out.UserID = member.User.ID
			out.Bot = member.User.Bot
		}
	}
	if presence != nil {
		out.Online = presence.Status != discordgo.StatusOffline && presence.Status != discordgo.StatusInvisible && presence.Status != ""
		out.Status = CustomStatus(presence.Activities)
	}
	return out
}

// MessageFromAnnouncement renders the announcement as an embed that only
// pings the announced user.
func MessageFromAnnouncement(msg models.Announcement, iconURL string, now time.Time) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Color:       embedColor,
		Description: strings.Join(msg.Lines, "\n"),
		Footer:      &discordgo.MessageEmbedFooter{Text: msg.Footer},
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
	if iconURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: iconURL}
	}
	return &discordgo.MessageSend{
		Content:         msg.Content,
		Embeds:          []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{msg.UserID}},
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return appErrors.WrapAs(appErrors.ErrUnknownUser, err, "")
		}
	}
	return appErrors.WrapAs(appErrors.ErrTransientDirectory, err, "")
}
