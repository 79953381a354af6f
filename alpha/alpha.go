// Package alpha synthesises the identifiers the stylesheet compiler
// assigns to templates and modes declared without a name attribute, so
// they can still be registered and looked up by name alongside named
// ones. An identifier is minted by stepping an odometer of fixed-width
// letter/digit blocks and never repeats for the lifetime of a Namer.
package alpha

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// Namer mints a fresh identifier on every call to Next, until its space is
// exhausted, at which point Next returns io.EOF.
type Namer interface {
	Next() (string, error)
	Reset()
}

const (
	lowerA = 'a'
	lowerZ = 'z'
	upperA = 'A'
	upperZ = 'Z'
	digit0 = '0'
	digit9 = '9'
)

// wheel is one position of an odometer: a rune cycling through [min,max],
// reporting itself done once it advances past max.
type wheel struct {
	curr rune
	min  rune
	max  rune
}

func newWheel(min, max rune) *wheel {
	return &wheel{curr: min, min: min, max: max}
}

func lowerWheel() *wheel  { return newWheel(lowerA, lowerZ) }
func upperWheel() *wheel  { return newWheel(upperA, upperZ) }
func digitWheel() *wheel  { return newWheel(digit0, digit9) }

func (w *wheel) Get() rune { return w.curr }

func (w *wheel) Next() rune {
	if w.Done() {
		return w.curr
	}
	w.curr++
	if w.curr > w.max {
		w.curr = utf8.RuneError
	}
	return w.curr
}

func (w *wheel) Done() bool { return w.curr == utf8.RuneError }
func (w *wheel) Reset()     { w.curr = w.min }

// block is a fixed-width run of wheels sharing the same rune range,
// stepping like an odometer: the rightmost wheel advances on every call
// and carries into its left neighbour once it wraps around.
type block struct {
	wheels []*wheel
}

func newBlock(size int, next func() *wheel) Namer {
	var b block
	if size <= 0 {
		return &b
	}
	for i := 0; i < size; i++ {
		b.wheels = append(b.wheels, next())
	}
	return &b
}

func NewLowerString(size int) Namer  { return newBlock(size, lowerWheel) }
func NewUpperString(size int) Namer  { return newBlock(size, upperWheel) }
func NewNumberString(size int) Namer { return newBlock(size, digitWheel) }

func (b *block) Next() (string, error) {
	if len(b.wheels) == 0 || b.wheels[0].Done() {
		return "", io.EOF
	}
	chars := make([]rune, len(b.wheels))
	for i, w := range b.wheels {
		chars[i] = w.Get()
	}
	for i := len(b.wheels) - 1; i >= 0; i-- {
		b.wheels[i].Next()
		if !b.wheels[i].Done() {
			for j := i + 1; j < len(b.wheels); j++ {
				b.wheels[j].Reset()
			}
			break
		}
	}
	return string(chars), nil
}

func (b *block) Reset() {
	for _, w := range b.wheels {
		w.Reset()
	}
}

// composite chains several Namers into one wider identifier joined by a
// separator, advancing the rightmost one each call and carrying into its
// left neighbour once it exhausts - the same odometer behaviour as block,
// one level up.
type composite struct {
	parts []Namer
	buf   []string
	sep   string
}

// Compose joins several Namers, left to right, into a single wider Namer.
func Compose(parts ...Namer) Namer {
	c := composite{sep: "-", parts: append([]Namer(nil), parts...)}
	c.buf = make([]string, len(c.parts))
	for i := range c.parts {
		c.buf[i], _ = c.parts[i].Next()
	}
	return &c
}

func (c *composite) Next() (string, error) {
	id := strings.Join(c.buf, c.sep)
	return id, c.advance()
}

func (c *composite) advance() error {
	for i := len(c.parts) - 1; i >= 0; i-- {
		str, err := c.parts[i].Next()
		if err == nil {
			c.buf[i] = str
			return nil
		}
		if !errors.Is(err, io.EOF) {
			continue
		}
		if i == 0 {
			return io.EOF
		}
		for j := i; j < len(c.parts); j++ {
			c.parts[j].Reset()
		}
		c.buf[i], _ = c.parts[i].Next()
	}
	return nil
}

func (c *composite) Reset() {
	for _, p := range c.parts {
		p.Reset()
	}
}

// NewAnonymousID returns the Namer the stylesheet compiler uses to mint
// identifiers for templates and modes declared without a name, e.g.
// "aaa-00", "aaa-01", ... "zzz-99".
func NewAnonymousID() Namer {
	return Compose(NewLowerString(3), NewNumberString(2))
}
