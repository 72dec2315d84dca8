package loop

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tomz197/typefall/internal/draw"
	"github.com/tomz197/typefall/internal/game"
	"github.com/tomz197/typefall/internal/loop/config"
)

var titleArt = []string{
	` _____ _   _ ___ ___ ___ _   _    _    `,
	`|_   _| | | | _ \ __| __/_\ | |  | |   `,
	`  | |  \_/ /|  _/ _|| _/ _ \| |__| |__ `,
	`  |_|   |_| |_| |___|_/_/ \_\____|____|`,
}

var gameOverArt = []string{
	`   ___   _   __  __ ___    _____   _____ ___  `,
	`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
	` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
	`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	cw := c.chunkWriter
	st := c.ctrl.State()

	// On phase, overlay or size transitions, do a full terminal clear so
	// text from the previous screen doesn't persist.
	if c.state.forceRedraw ||
		st.Phase != c.state.prevPhase ||
		c.state.isInactive != c.state.wasInactive ||
		c.state.shuttingDown != c.state.wasShutdown {
		cw.ClearAll()
		c.state.forceRedraw = false
		c.state.prevPhase = st.Phase
		c.state.wasInactive = c.state.isInactive
		c.state.wasShutdown = c.state.shuttingDown
	}

	area := c.state.area
	if area.Width <= 0 || area.Height <= 0 {
		return cw.Flush()
	}

	noticeRow := area.Bottom() - 1
	switch {
	case c.state.shuttingDown:
		c.drawShutdownScreen(area)
	case c.state.isInactive:
		c.drawInactivityScreen(area)
	case st.Phase == game.PhasePlaying:
		noticeRow = c.drawPlaying(area, st)
	case st.Phase == game.PhaseEnded:
		c.drawEndScreen(area, st)
	default:
		c.drawStartScreen(area)
	}

	c.drawNotice(area, noticeRow)

	return cw.Flush()
}

// line clears row and writes s centered on it.
func (c *Client) line(area draw.Area, row int, s string) {
	if row < area.Row || row > area.Bottom() {
		return
	}
	c.chunkWriter.ClearRow(row)
	if s != "" {
		c.chunkWriter.WriteAt(area.Centered(s), row, s)
	}
}

// block draws lines centered as a block, starting at row.
func (c *Client) block(area draw.Area, row int, lines []string) {
	width := 0
	for _, l := range lines {
		width = max(width, utf8.RuneCountInString(l))
	}
	col := max(area.CenterX()-width/2, area.Col)
	for i, l := range lines {
		r := row + i
		if r < area.Row || r > area.Bottom() {
			continue
		}
		c.chunkWriter.ClearRow(r)
		c.chunkWriter.WriteAt(col, r, c.palette.Title.Render(area.Clip(col, l)))
	}
}

// blink reports whether blinking prompts are in their visible half.
func blink() bool {
	return time.Now().UnixMilli()/600%2 == 0
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(area draw.Area) {
	top := area.CenterY() - 9
	c.block(area, top, titleArt)

	row := top + len(titleArt) + 1
	c.line(area, row, "~ Type the falling words before they land ~")

	row += 2
	c.line(area, row, "Controls")
	controls := []string{
		"letters  . . . . . . Type",
		"BACKSPACE  . . . .  Erase",
		"ENTER / CTRL-U  . .  Clear",
		"ESC  . . . . . . .  Abort",
		"CTRL-C . . . . . . . Quit",
	}
	for i, l := range controls {
		c.line(area, row+1+i, l)
	}

	row += len(controls) + 2
	if err := c.ctrl.CanPlay(); err != nil {
		c.line(area, row, c.palette.Alert.Render(sentence(err.Error())))
		c.line(area, row+1, c.palette.Muted.Render(c.gateHint))
	} else {
		c.line(area, row, "Playing as "+c.playerLabel())
		c.line(area, row+1, "")
	}

	prompt := ""
	if blink() {
		prompt = ">>  Press ENTER to Start  <<"
	}
	c.line(area, row+3, prompt)
}

// drawPlaying draws the HUD, the falling words, the floor and the input
// line. Returns the row used for notifications.
func (c *Client) drawPlaying(area draw.Area, st game.State) int {
	cw := c.chunkWriter
	field := c.ctrl.Field()
	timing := c.ctrl.Timing()

	hud := fmt.Sprintf("Score: %-7d  Time: %-6s  Lives: %-8s  Speed: %.1fx",
		st.Score,
		game.FormatClock(game.SurvivalTime(st.ElapsedTicks, timing.TickEvery)),
		strings.Repeat("♥", st.Lives),
		st.SpeedMultiplier,
	)
	cw.ClearRow(area.Row)
	cw.WriteAt(area.Col+1, area.Row, area.Clip(area.Col+1, hud))

	// Field rows are redrawn from scratch each frame.
	view := area.Inset(1, 2)
	for r := view.Row; r <= view.Bottom(); r++ {
		cw.ClearRow(r)
	}

	typed := c.ctrl.Typed()
	for _, w := range st.Words {
		col, row := view.Project(w.X, w.Y, field.Width, field.FloorY())
		if !view.Contains(col, row) {
			continue
		}
		text := view.Clip(col, w.Text)
		cw.WriteAt(col, row, c.renderWord(w, text, typed))
	}

	floorRow := view.Bottom() + 1
	cw.ClearRow(floorRow)
	cw.WriteAt(area.Col, floorRow, c.palette.Muted.Render(strings.Repeat("─", area.Width)))

	inputRow := area.Bottom()
	cw.ClearRow(inputRow)
	prompt := "> " + c.palette.Input.Render(typed) + "_"
	cw.WriteAt(area.Col+1, inputRow, prompt)
	hint := c.palette.Muted.Render("ESC abort")
	if col := area.Col + area.Width - len("ESC abort") - 1; col > area.Col+len(typed)+4 {
		cw.WriteAt(col, inputRow, hint)
	}

	return view.Row
}

// renderWord colors a word, marking the part already typed.
func (c *Client) renderWord(w game.Word, text, typed string) string {
	n := utf8.RuneCountInString(typed)
	if n == 0 || n > utf8.RuneCountInString(text) {
		return c.palette.Word(w.Color, text)
	}
	r := []rune(text)
	if !strings.EqualFold(string(r[:n]), typed) {
		return c.palette.Word(w.Color, text)
	}
	return c.palette.Accent.Render(string(r[:n])) + c.palette.Word(w.Color, string(r[n:]))
}

// drawEndScreen draws the game over screen with the final result.
func (c *Client) drawEndScreen(area draw.Area, st game.State) {
	top := area.CenterY() - 8
	c.block(area, top, gameOverArt)

	row := top + len(gameOverArt) + 1
	c.line(area, row, fmt.Sprintf("Final Score: %d", st.Score))
	c.line(area, row+1, c.palette.Accent.Render(game.Rank(st.Score)))
	survived := game.SurvivalTime(st.ElapsedTicks, c.ctrl.Timing().TickEvery)
	c.line(area, row+2, "Survived: "+game.FormatClock(survived))

	row += 4
	switch err := c.ctrl.CanPlay(); {
	case c.ctrl.Submitting():
		c.line(area, row, c.palette.Muted.Render("Submitting score..."))
	case err != nil:
		c.line(area, row, c.palette.Alert.Render(sentence(err.Error())))
	default:
		c.line(area, row, "Submit as "+c.playerLabel())
	}

	row += 2
	c.line(area, row, "ENTER / R  Play again    S  Submit score")
	c.line(area, row+1, "ESC  Menu    Q  Quit")
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(area draw.Area) {
	centerY := area.CenterY()
	c.line(area, centerY-2, c.palette.Alert.Render("INACTIVITY WARNING"))

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	c.line(area, centerY, msg)
	c.line(area, centerY+2, "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(area draw.Area) {
	centerY := area.CenterY()
	c.line(area, centerY-3, c.palette.Alert.Render("SERVER SHUTTING DOWN"))
	c.line(area, centerY-1, "The server is restarting for maintenance.")
	c.line(area, centerY, "Please reconnect in a moment.")

	remaining := int(c.state.shutdownTimer) + 1
	c.line(area, centerY+2, fmt.Sprintf("Disconnecting in %d seconds...", remaining))
	c.line(area, centerY+4, "Press Q to disconnect now")
}

// drawNotice draws the latest notification, or clears its row.
func (c *Client) drawNotice(area draw.Area, row int) {
	if c.state.notice == "" {
		if c.ctrl.Phase() != game.PhasePlaying {
			c.line(area, row, "")
		}
		return
	}
	c.line(area, row, c.palette.Accent.Render(area.Clip(area.Col, c.state.notice)))
}

// playerLabel is "username (0x1234…abcd)".
func (c *Client) playerLabel() string {
	id := c.ctrl.identity.Identity()
	addr := id.Address
	if len(addr) > 12 {
		addr = addr[:6] + "…" + addr[len(addr)-4:]
	}
	return fmt.Sprintf("%s (%s)", id.Username, addr)
}

// sentence upper-cases the first letter of an error message.
func sentence(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:] + "."
}
