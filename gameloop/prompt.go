package gameloop

import (
	"fmt"
	"strings"
)

// PromptData is everything the prompt builder needs for one turn.
type PromptData struct {
	Game          GameInfo
	Turn          int
	Position      *Position
	Notes         []Note
	Records       []TurnRecord
	StuckWarning  string
	SearchQuery   string
	SearchEnabled bool
	MaxRepeat     int
}

// BuildPrompt assembles the text part of the turn's user message. The
// screenshots are attached separately as image blocks.
func BuildPrompt(d PromptData) string {
	var sb strings.Builder

	title := d.Game.Title
	if title == "" {
		title = "a Game Boy Advance game"
	}
	fmt.Fprintf(&sb, "You are playing %s", title)
	if d.Game.Code != "" {
		fmt.Fprintf(&sb, " (game code %s)", d.Game.Code)
	}
	fmt.Fprintf(&sb, " on an emulator. This is turn %d.\n\n", d.Turn)

	if d.Position != nil {
		fmt.Fprintf(&sb, "Current position: (%d,%d) on map %d-%d.",
			d.Position.X, d.Position.Y, d.Position.MapGroup, d.Position.MapNum)
		if d.Position.InBattle {
			sb.WriteString(" You are in a battle.")
		}
		sb.WriteString("\n\n")
	}

	if len(d.Notes) > 0 {
		sb.WriteString("# Your Notes\n\n")
		for _, n := range d.Notes {
			fmt.Fprintf(&sb, "#%d [%s] (%s): %s\n", n.ID, n.Timestamp, n.Status, n.Content)
		}
		sb.WriteString("\nNotes marked CONTRADICTED were disproven by the game's actual state; do not trust them.\n\n")
	}

	if len(d.Records) > 0 {
		sb.WriteString("# Recent Turn Outcomes\n\n")
		for _, rec := range d.Records {
			fmt.Fprintf(&sb, "Turn %d: pressed [%s] -> %s (%s)\n",
				rec.Turn, rec.InputText, rec.Result, rec.Reason)
		}
		sb.WriteString("\n")
	}

	if d.StuckWarning != "" {
		sb.WriteString(d.StuckWarning)
		sb.WriteString("\n\n")
	}

	if d.SearchQuery != "" {
		fmt.Fprintf(&sb, "You previously requested a web search for: %q. Use any results shown to you.\n\n", d.SearchQuery)
	}

	sb.WriteString("The screenshot shows the current screen")
	sb.WriteString(" (when two are attached, the first is the previous turn's screen for comparison).\n\n")

	sb.WriteString(`# How To Respond

Think about the situation, then give your action on its own line:

BUTTONS: <button> [count] [<button> [count] ...]

Buttons: up, down, left, right, a, b, l, r, start, select. `)
	fmt.Fprintf(&sb, "A count repeats a button (max %d), e.g. \"BUTTONS: up 3 a\".\n\n", d.MaxRepeat)

	sb.WriteString(`You may also manage your notes anywhere in the response:
[NOTE: <text>] to record something worth remembering
[CLEAR NOTE: <id>] to delete a note
[CLEAR ALL NOTES] to start over
`)
	if d.SearchEnabled {
		sb.WriteString("[SEARCH: <query>] to request a web search next turn\n")
	}

	return sb.String()
}
