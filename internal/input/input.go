// Package input turns raw terminal bytes into key events.
package input

import (
	"bufio"
	"unicode"
)

// Key identifies a key event.
type Key int

const (
	KeyRune Key = iota // Printable character, see Event.Rune
	KeyEnter
	KeyBackspace
	KeyClear // Ctrl-U
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyQuit // Ctrl-C or Ctrl-D
)

// Event is a single key press.
type Event struct {
	Key  Key
	Rune rune
}

// Input is everything read since the previous frame.
type Input struct {
	Events []Event
	Quit   bool
	Closed bool // The underlying reader is gone
}

// Stream delivers runes from a reader via a channel.
type Stream struct {
	ch     chan rune
	closed bool
}

// StartStream spawns a goroutine that reads runes from r and sends them to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan rune, 128)}
	go func() {
		for {
			c, _, err := r.ReadRune()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- c
		}
	}()
	return s
}

// ReadInput drains all available runes from the stream (non-blocking).
func ReadInput(s *Stream) Input {
	var buf []rune

drain:
	for !s.closed {
		select {
		case c, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, c)
		default:
			break drain
		}
	}

	in := Input{Events: Parse(buf), Closed: s.closed}
	for _, e := range in.Events {
		if e.Key == KeyQuit {
			in.Quit = true
		}
	}
	return in
}

// Parse converts raw runes into events. CSI arrow sequences become arrow
// keys, a lone ESC is Escape, CR LF counts as one Enter. Other control
// characters are dropped.
func Parse(buf []rune) []Event {
	var events []Event
	for i := 0; i < len(buf); i++ {
		c := buf[i]

		if c == '\x1b' {
			if i+2 < len(buf) && buf[i+1] == '[' {
				if k, ok := arrow(buf[i+2]); ok {
					events = append(events, Event{Key: k})
					i += 2
					continue
				}
			}
			events = append(events, Event{Key: KeyEscape})
			continue
		}

		switch c {
		case '\r':
			if i+1 < len(buf) && buf[i+1] == '\n' {
				i++
			}
			events = append(events, Event{Key: KeyEnter})
		case '\n':
			events = append(events, Event{Key: KeyEnter})
		case '\b', '\x7f':
			events = append(events, Event{Key: KeyBackspace})
		case '\x15':
			events = append(events, Event{Key: KeyClear})
		case '\x03', '\x04':
			events = append(events, Event{Key: KeyQuit})
		default:
			if unicode.IsPrint(c) {
				events = append(events, Event{Key: KeyRune, Rune: c})
			}
		}
	}
	return events
}

func arrow(c rune) (Key, bool) {
	switch c {
	case 'A':
		return KeyUp, true
	case 'B':
		return KeyDown, true
	case 'C':
		return KeyRight, true
	case 'D':
		return KeyLeft, true
	}
	return 0, false
}
