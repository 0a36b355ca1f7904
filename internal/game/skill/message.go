package skill

import "strings"

// Substitutions holds the values a cast message may reference.
type Substitutions struct {
	Skill  string // %n
	Caster string // %c
	Target string // %t
}

func (s Substitutions) lookup(code byte) string {
	switch code {
	case 'n':
		return s.Skill
	case 'c':
		return s.Caster
	case 't':
		return s.Target
	case '%':
		return "%"
	}
	return ""
}

type segment struct {
	text string
	code byte // 0 for literal text
}

// Message is a compiled cast-message template.
//
// Recognised escapes are %n (skill name), %c (caster name), %t (target
// name) and %% (a literal percent). Any other %x renders as the empty
// string, and a lone trailing % renders literally. Substituted values are
// never rescanned.
type Message struct {
	raw      string
	segments []segment
}

// CompileMessage tokenizes tmpl.
//
// Postcondition: the returned Message renders in a single left-to-right pass.
func CompileMessage(tmpl string) Message {
	m := Message{raw: tmpl}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			m.segments = append(m.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if i == len(tmpl)-1 {
			lit.WriteByte('%')
			break
		}
		i++
		flush()
		m.segments = append(m.segments, segment{code: tmpl[i]})
	}
	flush()
	return m
}

// String returns the template source.
func (m Message) String() string { return m.raw }

// Empty reports whether the template has no content.
func (m Message) Empty() bool { return len(m.segments) == 0 }

// Render substitutes sub into the template.
func (m Message) Render(sub Substitutions) string {
	if m.Empty() {
		return ""
	}
	var b strings.Builder
	b.Grow(len(m.raw) + len(sub.Skill) + len(sub.Caster) + len(sub.Target))
	for _, s := range m.segments {
		if s.code == 0 {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(sub.lookup(s.code))
	}
	return b.String()
}

// RenderMessage compiles and renders tmpl in one step.
func RenderMessage(tmpl string, sub Substitutions) string {
	return CompileMessage(tmpl).Render(sub)
}
