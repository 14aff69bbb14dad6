package term

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/go-drift/loom/pkg/rendering"
)

var csiKeys = map[byte]string{
	'A': "up",
	'B': "down",
	'C': "right",
	'D': "left",
	'H': "home",
	'F': "end",
}

// parseKeys decodes one read from a raw-mode terminal.
func parseKeys(buf []byte) []rendering.Key {
	var keys []rendering.Key
	for len(buf) > 0 {
		b := buf[0]
		switch {
		case b == 0x1b:
			if len(buf) >= 3 && buf[1] == '[' {
				if name, ok := csiKeys[buf[2]]; ok {
					keys = append(keys, rendering.Key{Name: name})
					buf = buf[3:]
					continue
				}
			}
			if len(buf) >= 2 && buf[1] != '[' && buf[1] != 0x1b {
				inner := parseKeys(buf[1:2])
				if len(inner) == 1 {
					k := inner[0]
					k.Alt = true
					keys = append(keys, k)
					buf = buf[2:]
					continue
				}
			}
			keys = append(keys, rendering.Key{Name: "esc"})
			buf = buf[1:]
		case b == '\r' || b == '\n':
			keys = append(keys, rendering.Key{Name: "enter"})
			buf = buf[1:]
		case b == '\t':
			keys = append(keys, rendering.Key{Name: "tab"})
			buf = buf[1:]
		case b == 0x7f || b == 0x08:
			keys = append(keys, rendering.Key{Name: "backspace"})
			buf = buf[1:]
		case b >= 0x01 && b <= 0x1a:
			r := rune('a' + b - 1)
			keys = append(keys, rendering.Key{Name: string(r), Rune: r, Ctrl: true})
			buf = buf[1:]
		case b == ' ':
			keys = append(keys, rendering.Key{Name: "space", Rune: ' '})
			buf = buf[1:]
		default:
			r, size := utf8.DecodeRune(buf)
			buf = buf[size:]
			if r == utf8.RuneError || r < 0x20 {
				continue
			}
			keys = append(keys, rendering.Key{Name: string(r), Rune: r})
		}
	}
	return keys
}

// ReadInput reads keys from the backend's input and delivers them to the
// registered handlers until ctx is done or the input ends.
func (b *Backend) ReadInput(ctx context.Context) error {
	if b.in == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	type chunk struct {
		data []byte
		err  error
	}
	reads := make(chan chunk)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := b.in.Read(buf)
			data := append([]byte(nil), buf[:n]...)
			select {
			case reads <- chunk{data, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-reads:
			for _, k := range parseKeys(c.data) {
				b.Press(k)
			}
			if c.err == io.EOF {
				return nil
			}
			if c.err != nil {
				return c.err
			}
		}
	}
}

// Press delivers k to every registered handler.
func (b *Backend) Press(k rendering.Key) {
	b.inputMu.Lock()
	handlers := make([]rendering.InputHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.inputMu.Unlock()
	for _, h := range handlers {
		h(k)
	}
}

func (b *Backend) CaptureInput(handler rendering.InputHandler) func() {
	b.inputMu.Lock()
	defer b.inputMu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.inputMu.Lock()
		defer b.inputMu.Unlock()
		delete(b.handlers, id)
	}
}
