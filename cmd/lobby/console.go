package main

import (
	"sync"
	"unicode/utf8"

	"github.com/tncardoso/gocurses"
)

const maxScrollback = 500

// History holds the entered lines, most recent last, without duplicates
type History struct {
	lines [][]rune
	i     int
}

func (h *History) Add(line []rune) {
	for k, v := range h.lines {
		if string(v) == string(line) {
			h.lines = append(h.lines[:k], h.lines[k+1:]...)
			break
		}
	}

	h.lines = append(h.lines, line)
	h.i = 0
}

func (h *History) Prev(current []rune) []rune {
	h.i++
	i := len(h.lines) - h.i
	if i < 0 || i >= len(h.lines) {
		h.i--
		return current
	}

	return h.lines[i]
}

func (h *History) Next() []rune {
	h.i--
	if h.i < 1 {
		h.i = 0
		return []rune{}
	}

	return h.lines[len(h.lines)-h.i]
}

// Console is a curses screen showing the log above an input line.
// Entered lines are delivered on Lines; they are never executed
// on the console's own goroutine.
type Console struct {
	mu     sync.Mutex
	prompt string
	input  []rune
	hist   History
	log    *Logger

	lines chan string
	dirty chan struct{}
}

func startConsole(prompt string, log *Logger) *Console {
	c := &Console{
		prompt: prompt,
		log:    log,
		lines:  make(chan string, 16),
		dirty:  make(chan struct{}, 1),
	}

	gocurses.Initscr()
	gocurses.Cbreak()
	gocurses.Noecho()
	gocurses.Stdscr.Keypad(true)

	log.SetEcho(func(string) {
		select {
		case c.dirty <- struct{}{}:
		default:
		}
	})

	go func() {
		for range c.dirty {
			c.draw()
		}
	}()

	go c.readKeys()

	c.draw()
	return c
}

// Lines returns the channel of entered lines
func (c *Console) Lines() <-chan string { return c.lines }

func (c *Console) readKeys() {
	for {
		var ch rune
		ch1 := gocurses.Stdscr.Getch() % 255
		if ch1 > 0x7F {
			ch2 := gocurses.Stdscr.Getch()
			ch, _ = utf8.DecodeRune([]byte{byte(ch1), byte(ch2)})
		} else {
			ch = rune(ch1)
		}

		var entered []rune

		c.mu.Lock()
		switch ch {
		case 3:
			c.input = c.hist.Next()
		case 4:
			c.input = c.hist.Prev(c.input)
		case '\b', 127:
			if len(c.input) > 0 {
				c.input = c.input[:len(c.input)-1]
			}
		case '\n':
			entered = c.input
			c.input = []rune{}
			if len(entered) > 0 {
				c.hist.Add(entered)
			}
		default:
			c.input = append(c.input, ch)
		}
		c.mu.Unlock()

		c.draw()

		if len(entered) > 0 {
			c.lines <- string(entered)
		}
	}
}

func (c *Console) draw() {
	msgs := c.log.Lines()

	c.mu.Lock()
	defer c.mu.Unlock()

	gocurses.Clear()

	row, _ := gocurses.Getmaxyx()

	if len(msgs) > row-1 {
		msgs = msgs[len(msgs)-(row-1):]
	}

	i := len(msgs)
	for _, msg := range msgs {
		gocurses.Mvaddstr(row-i-1, 0, msg)
		i--
	}
	gocurses.Mvaddstr(row-1, 0, c.prompt+string(c.input))

	gocurses.Refresh()
}

// Close restores the terminal
func (c *Console) Close() {
	c.log.SetEcho(nil)
	gocurses.End()
}
