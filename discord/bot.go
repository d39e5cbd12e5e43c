package discord

import (
	"context"
	"fmt"

	"winter-dragon/models"
	"winter-dragon/services"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// TeamBalancer splits a roster into balanced teams.
type TeamBalancer interface {
	CreateBalancedTeams(ctx context.Context, req services.CreateTeamsRequest) ([][]int64, error)
}

// ResultRecorder stores a finished match.
type ResultRecorder interface {
	RecordMatchResult(ctx context.Context, req services.RecordResultRequest) (*models.GameMatch, error)
}

// Bot serves the matchmaking slash commands.
type Bot struct {
	Session  *discordgo.Session
	GuildID  string
	Commands []*discordgo.ApplicationCommand

	balancer TeamBalancer
	recorder ResultRecorder
	logger   *zap.Logger
	handlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
}

func NewBot(token, guildID string, balancer TeamBalancer, recorder ResultRecorder, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	b := &Bot{
		Session:  session,
		GuildID:  guildID,
		balancer: balancer,
		recorder: recorder,
		logger:   logger,
	}
	b.handlers = map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"teams":  b.handleTeamsCommand,
		"result": b.handleResultCommand,
	}
	return b, nil
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start() error {
	b.Session.AddHandler(b.interactionHandler)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	registered := make([]*discordgo.ApplicationCommand, 0, len(commands))
	for _, cmd := range commands {
		rc, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, b.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("register command %q: %w", cmd.Name, err)
		}
		registered = append(registered, rc)
	}
	b.Commands = registered

	b.logger.Info("discord bot running", zap.Int("commands", len(registered)), zap.String("guild_id", b.GuildID))
	return nil
}

// Stop removes the registered commands and closes the session.
func (b *Bot) Stop() error {
	for _, cmd := range b.Commands {
		if err := b.Session.ApplicationCommandDelete(b.Session.State.User.ID, b.GuildID, cmd.ID); err != nil {
			b.logger.Warn("remove discord command", zap.String("command", cmd.Name), zap.Error(err))
		}
	}
	return b.Session.Close()
}

func (b *Bot) interactionHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if handler, ok := b.handlers[i.ApplicationCommandData().Name]; ok {
		handler(s, i)
	}
}

func (b *Bot) acknowledge(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.logger.Error("acknowledge interaction", zap.Error(err))
		return false
	}
	return true
}

func (b *Bot) sendEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		b.logger.Error("edit interaction response", zap.Error(err))
	}
}

func (b *Bot) sendError(s *discordgo.Session, i *discordgo.InteractionCreate, title, description string) {
	b.sendEmbed(s, i, &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorError,
	})
}
