package discord

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"winter-dragon/services"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorError   = 0xff0000
	colorTeams   = 0x3498db
	colorResult  = 0x2ecc71
	maxTeamSlots = 4

	commandTimeout = 30 * time.Second
)

var teamOptions = func() []*discordgo.ApplicationCommandOption {
	opts := make([]*discordgo.ApplicationCommandOption, 0, maxTeamSlots)
	for n := 1; n <= maxTeamSlots; n++ {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        fmt.Sprintf("team%d", n),
			Description: fmt.Sprintf("Members of team %d as @mentions", n),
			Required:    n <= 2,
		})
	}
	return opts
}()

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "teams",
		Description: "Split the mentioned players into balanced teams",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "game",
				Description: "Game name",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "players",
				Description: "Players to split, as @mentions",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "format",
				Description: "Team size v number of teams, e.g. 2v2, 3v2 or ffa (default: 2v2)",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "avoid_synergy",
				Description: "Keep players with strong shared history apart (default: true)",
				Required:    false,
			},
		},
	},
	{
		Name:        "result",
		Description: "Record the result of a finished match",
		Options: append([]*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "game",
				Description: "Game name",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "winner",
				Description: "Winning team number, starting at 1",
				Required:    true,
			},
		}, append(teamOptions,
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "format",
				Description: "Team size v number of teams the match was played in (default: 2v2)",
				Required:    false,
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "duration",
				Description: "Match length in seconds",
				Required:    false,
			},
		)...),
	},
}

var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

// ParseMentions returns the user ids mentioned in s, in order of appearance.
func ParseMentions(s string) ([]int64, error) {
	matches := mentionPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, errors.New("no players mentioned")
	}
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad user id %q: %w", m[1], err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// BuildTeamsRequest turns /teams options into a matchmaking request.
func BuildTeamsRequest(opts []*discordgo.ApplicationCommandInteractionDataOption) (services.CreateTeamsRequest, error) {
	m := optionMap(opts)
	req := services.CreateTeamsRequest{}
	if o, ok := m["game"]; ok {
		req.GameName = o.StringValue()
	}
	if o, ok := m["format"]; ok {
		req.BracketFormat = strings.TrimSpace(o.StringValue())
	}
	if o, ok := m["avoid_synergy"]; ok {
		v := o.BoolValue()
		req.AvoidSynergy = &v
	}
	o, ok := m["players"]
	if !ok {
		return req, errors.New("players are required")
	}
	ids, err := ParseMentions(o.StringValue())
	if err != nil {
		return req, err
	}
	req.PlayerIDs = ids
	return req, nil
}

// BuildResultRequest turns /result options into a result request. Team
// slots must be filled from team1 without gaps.
func BuildResultRequest(opts []*discordgo.ApplicationCommandInteractionDataOption) (services.RecordResultRequest, error) {
	m := optionMap(opts)
	req := services.RecordResultRequest{}
	if o, ok := m["game"]; ok {
		req.GameName = o.StringValue()
	}
	if o, ok := m["format"]; ok {
		req.BracketFormat = strings.TrimSpace(o.StringValue())
	}
	gap := 0
	for n := 1; n <= maxTeamSlots; n++ {
		o, ok := m[fmt.Sprintf("team%d", n)]
		if !ok {
			if gap == 0 {
				gap = n
			}
			continue
		}
		if gap != 0 {
			return req, fmt.Errorf("team %d is set but team %d is empty", n, gap)
		}
		ids, err := ParseMentions(o.StringValue())
		if err != nil {
			return req, fmt.Errorf("team %d: %w", n, err)
		}
		req.Teams = append(req.Teams, ids)
	}
	if len(req.Teams) == 0 {
		return req, errors.New("at least one team is required")
	}
	o, ok := m["winner"]
	if !ok {
		return req, errors.New("winner is required")
	}
	req.WinningTeamIdx = int(o.IntValue()) - 1
	if o, ok := m["duration"]; ok {
		d := int(o.IntValue())
		req.DurationSeconds = &d
	}
	return req, nil
}

func mention(id int64) string {
	return fmt.Sprintf("<@%d>", id)
}

func formatTeamsEmbed(req services.CreateTeamsRequest, teams [][]int64) *discordgo.MessageEmbed {
	format := req.BracketFormat
	if format == "" {
		format = services.DefaultBracketFormat
	}
	fields := make([]*discordgo.MessageEmbedField, len(teams))
	for t, team := range teams {
		names := make([]string, len(team))
		for i, id := range team {
			names[i] = mention(id)
		}
		fields[t] = &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("Team %d", t+1),
			Value:  strings.Join(names, "\n"),
			Inline: true,
		}
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s teams", req.GameName),
		Description: fmt.Sprintf("Format **%s** • %d players", format, len(req.PlayerIDs)),
		Color:       colorTeams,
		Fields:      fields,
	}
}

func errorTitle(err error) string {
	var verr *services.ValidationError
	var ferr *services.FormatError
	switch {
	case errors.As(err, &verr), errors.As(err, &ferr):
		return "Invalid Input"
	default:
		return "Something Went Wrong"
	}
}

func (b *Bot) handleTeamsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.acknowledge(s, i) {
		return
	}
	req, err := BuildTeamsRequest(i.ApplicationCommandData().Options)
	if err != nil {
		b.sendError(s, i, "Invalid Input", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	teams, err := b.balancer.CreateBalancedTeams(ctx, req)
	if err != nil {
		b.logger.Warn("discord /teams failed", zap.Error(err))
		b.sendError(s, i, errorTitle(err), err.Error())
		return
	}
	b.sendEmbed(s, i, formatTeamsEmbed(req, teams))
}

func (b *Bot) handleResultCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.acknowledge(s, i) {
		return
	}
	req, err := BuildResultRequest(i.ApplicationCommandData().Options)
	if err != nil {
		b.sendError(s, i, "Invalid Input", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	match, err := b.recorder.RecordMatchResult(ctx, req)
	if err != nil {
		b.logger.Warn("discord /result failed", zap.Error(err))
		b.sendError(s, i, errorTitle(err), err.Error())
		return
	}

	winners := make([]string, len(req.Teams[req.WinningTeamIdx]))
	for k, id := range req.Teams[req.WinningTeamIdx] {
		winners[k] = mention(id)
	}
	b.sendEmbed(s, i, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s result recorded", req.GameName),
		Description: fmt.Sprintf("Team %d won: %s", match.WinningTeamNumber, strings.Join(winners, " ")),
		Color:       colorResult,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Match " + match.ID},
	})
}
