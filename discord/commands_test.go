package discord

import (
	"testing"

	"winter-dragon/services"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func intOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func boolOpt(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

func TestParseMentions(t *testing.T) {
	ids, err := ParseMentions("<@123> and <@!456>, <@789>")
	require.NoError(t, err)
	assert.Equal(t, []int64{123, 456, 789}, ids)

	_, err = ParseMentions("alice bob")
	assert.Error(t, err)

	_, err = ParseMentions("<@99999999999999999999>")
	assert.Error(t, err)
}

func TestBuildTeamsRequest(t *testing.T) {
	req, err := BuildTeamsRequest([]*discordgo.ApplicationCommandInteractionDataOption{
		strOpt("game", "chess"),
		strOpt("players", "<@1> <@2> <@3> <@4>"),
		strOpt("format", " 2v2 "),
		boolOpt("avoid_synergy", false),
	})
	require.NoError(t, err)
	assert.Equal(t, "chess", req.GameName)
	assert.Equal(t, []int64{1, 2, 3, 4}, req.PlayerIDs)
	assert.Equal(t, "2v2", req.BracketFormat)
	require.NotNil(t, req.AvoidSynergy)
	assert.False(t, *req.AvoidSynergy)

	req, err = BuildTeamsRequest([]*discordgo.ApplicationCommandInteractionDataOption{
		strOpt("game", "chess"),
		strOpt("players", "<@1> <@2>"),
	})
	require.NoError(t, err)
	assert.Nil(t, req.AvoidSynergy)

	_, err = BuildTeamsRequest([]*discordgo.ApplicationCommandInteractionDataOption{strOpt("game", "chess")})
	assert.Error(t, err)
}

func TestBuildResultRequest(t *testing.T) {
	req, err := BuildResultRequest([]*discordgo.ApplicationCommandInteractionDataOption{
		strOpt("game", "chess"),
		intOpt("winner", 2),
		strOpt("team1", "<@1> <@2>"),
		strOpt("team2", "<@3> <@4>"),
		intOpt("duration", 900),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}}, req.Teams)
	assert.Equal(t, 1, req.WinningTeamIdx)
	require.NotNil(t, req.DurationSeconds)
	assert.Equal(t, 900, *req.DurationSeconds)

	req, err = BuildResultRequest([]*discordgo.ApplicationCommandInteractionDataOption{
		strOpt("game", "chess"),
		intOpt("winner", 3),
		strOpt("team1", "<@1>"),
		strOpt("team2", "<@2>"),
		strOpt("team3", "<@3>"),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1}, {2}, {3}}, req.Teams)

	// A filled slot after an empty one would drop players.
	_, err = BuildResultRequest([]*discordgo.ApplicationCommandInteractionDataOption{
		strOpt("game", "chess"),
		intOpt("winner", 1),
		strOpt("team1", "<@1>"),
		strOpt("team2", "<@2>"),
		strOpt("team4", "<@4>"),
	})
	assert.ErrorContains(t, err, "team 4 is set but team 3 is empty")

	_, err = BuildResultRequest([]*discordgo.ApplicationCommandInteractionDataOption{
		strOpt("game", "chess"),
		intOpt("winner", 1),
		strOpt("team1", "nobody"),
	})
	assert.Error(t, err)
}

func TestFormatTeamsEmbed(t *testing.T) {
	embed := formatTeamsEmbed(services.CreateTeamsRequest{
		GameName:  "chess",
		PlayerIDs: []int64{1, 2, 3, 4},
	}, [][]int64{{1, 4}, {2, 3}})

	assert.Equal(t, "chess teams", embed.Title)
	assert.Contains(t, embed.Description, "2v2")
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Team 1", embed.Fields[0].Name)
	assert.Equal(t, "<@1>\n<@4>", embed.Fields[0].Value)
}

func TestErrorTitle(t *testing.T) {
	assert.Equal(t, "Invalid Input", errorTitle(&services.FormatError{Format: "x"}))
	assert.Equal(t, "Invalid Input", errorTitle(&services.ValidationError{Message: "bad"}))
	assert.Equal(t, "Something Went Wrong", errorTitle(assert.AnError))
}

func TestFormatOptionsDescribeGrammar(t *testing.T) {
	for _, c := range commands {
		for _, o := range c.Options {
			if o.Name == "format" {
				assert.Contains(t, o.Description, "Team size v number of teams")
				assert.NotContains(t, o.Description, "3v3")
			}
		}
	}
}

func TestCommandDefinitions(t *testing.T) {
	names := map[string]*discordgo.ApplicationCommand{}
	for _, c := range commands {
		names[c.Name] = c
	}
	require.Contains(t, names, "teams")
	require.Contains(t, names, "result")

	// Discord rejects required options after optional ones.
	for _, c := range commands {
		optional := false
		for _, o := range c.Options {
			if !o.Required {
				optional = true
				continue
			}
			assert.False(t, optional, "%s: required option %s after optional", c.Name, o.Name)
		}
	}
}
