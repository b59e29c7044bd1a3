package x11

import "github.com/jezek/xgb/xproto"

// metrics is the per-character width table of a server font, kept on
// the client so TextWidth needs no round trip.
type metrics struct {
	minChar, maxChar uint16
	defaultChar      uint16
	maxWidth         int16
	widths           []int16
	exists           []bool
}

func newMetrics(r *xproto.QueryFontReply) metrics {
	m := metrics{
		minChar:     r.MinCharOrByte2,
		maxChar:     r.MaxCharOrByte2,
		defaultChar: r.DefaultChar,
		maxWidth:    r.MaxBounds.CharacterWidth,
	}
	if len(r.CharInfos) == 0 {
		return m
	}
	m.widths = make([]int16, len(r.CharInfos))
	m.exists = make([]bool, len(r.CharInfos))
	for i, ci := range r.CharInfos {
		m.widths[i] = ci.CharacterWidth
		m.exists[i] = ci != (xproto.Charinfo{})
	}
	return m
}

// charWidth is the advance of one byte. Characters the font lacks use
// the default character, or nothing if that is missing too.
func (m metrics) charWidth(c byte) int {
	if m.widths == nil {
		return int(m.maxWidth)
	}
	if w, ok := m.lookup(uint16(c)); ok {
		return w
	}
	if w, ok := m.lookup(m.defaultChar); ok {
		return w
	}
	return 0
}

func (m metrics) lookup(c uint16) (int, bool) {
	if c < m.minChar || c > m.maxChar {
		return 0, false
	}
	i := int(c - m.minChar)
	if i >= len(m.widths) || !m.exists[i] {
		return 0, false
	}
	return int(m.widths[i]), true
}

func (m metrics) textWidth(s string) int {
	w := 0
	for i := 0; i < len(s); i++ {
		w += m.charWidth(s[i])
	}
	return w
}

// maxTextItem is the longest string one PolyText8 item may carry.
const maxTextItem = 254

// textItems encodes s as PolyText8 TEXTITEM8 entries: a length byte, a
// zero delta, then the characters.
func textItems(s string) []byte {
	items := make([]byte, 0, len(s)+2*(len(s)/maxTextItem+1))
	for len(s) > 0 {
		n := len(s)
		if n > maxTextItem {
			n = maxTextItem
		}
		items = append(items, byte(n), 0)
		items = append(items, s[:n]...)
		s = s[n:]
	}
	return items
}
