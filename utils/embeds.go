package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/utils/builders"
)

type Color int

const (
	ColorRed    Color = 0xe74c3c
	ColorGreen  Color = 0x2ecc71
	ColorBlue   Color = 0x3498db
	ColorOrange Color = 0xf39c12
	ColorWhite  Color = 0xffffff
)

const DefaultSolution = "Please check your input or contact a bot administrator if the issue persists."

// NewEmbed builds an embed with the shared footer.
func NewEmbed(title, description string, color Color, fields ...*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	b := builders.NewEmbedBuilder().
		WithTitle(title).
		WithDescription(description).
		WithColor(int(color)).
		WithFooter(fmt.Sprintf("Pookie | %v", time.Now().Format(time.DateOnly)), "")
	for _, f := range fields {
		b.AddField(f.Name, f.Value, f.Inline)
	}
	return b.Build()
}

func Field(name, value string, inline bool) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}

// ErrorEmbed describes what went wrong and how to fix it. An empty solution uses DefaultSolution.
func ErrorEmbed(description, solution string) *discordgo.MessageEmbed {
	if solution == "" {
		solution = DefaultSolution
	}
	return NewEmbed("Error ❌", description, ColorRed, Field("Solution", solution, false))
}

func SuccessEmbed(description string) *discordgo.MessageEmbed {
	return NewEmbed("Success ✅", description, ColorGreen)
}

func WarningEmbed(description string) *discordgo.MessageEmbed {
	return NewEmbed("Warning ⚠️", description, ColorOrange)
}

func HelpEmbed(name, usage, description string, aliases []string) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		Field("Usage", usage, false),
		Field("Description", description, false),
	}
	if len(aliases) > 0 {
		quoted := make([]string, len(aliases))
		for i, a := range aliases {
			quoted[i] = "`" + a + "`"
		}
		fields = append(fields, Field("Aliases", strings.Join(quoted, ", "), false))
	}
	return NewEmbed("Command: "+name, "", ColorBlue, fields...)
}
