package grammar

import (
	"strconv"
	"strings"
)

// The String methods reprint syntax nodes in source form. They are used in
// diagnostics, so they favour readability over exact round-tripping.

func (t *TypeRef) String() string {
	if t == nil {
		return "void"
	}
	var b strings.Builder
	b.WriteString(t.Name)
	if len(t.Generics) > 0 {
		b.WriteString("<")
		for i, g := range t.Generics {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(g.String())
		}
		b.WriteString(">")
	}
	for range t.Array {
		b.WriteString("[]")
	}
	return b.String()
}

func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	s := e.Condition.String()
	if e.Then != nil {
		s += " ? " + e.Then.String() + " : " + e.Else.String()
	}
	return s
}

func (b *Binary) String() string {
	var sb strings.Builder
	sb.WriteString(b.Left.String())
	for _, op := range b.Ops {
		sb.WriteString(" " + op.Operator + " ")
		sb.WriteString(op.Right.String())
	}
	return sb.String()
}

func (u *Unary) String() string {
	return strings.Join(u.Operators, "") + u.Value.String()
}

func (p *Postfix) String() string {
	var b strings.Builder
	b.WriteString(p.Primary.String())
	for _, s := range p.Suffix {
		b.WriteString(s.String())
	}
	return b.String()
}

func (s *Suffix) String() string {
	switch {
	case s.Index != nil:
		return "[" + s.Index.String() + "]"
	case s.Call != nil:
		return s.Call.String()
	default:
		return "." + s.Member
	}
}

func (a *Arguments) String() string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = arg.String()
	}
	return "(" + strings.Join(args, ", ") + ")"
}

func (p *Primary) String() string {
	switch {
	case p.New != nil:
		return "new " + p.New.Class + p.New.Args.String()
	case p.Object != nil:
		return p.Object.String()
	case p.Number != nil:
		return *p.Number
	case p.Text != nil:
		return strconv.Quote(*p.Text)
	case p.Bool != nil:
		return *p.Bool
	case p.This:
		return "this"
	case p.Ident != nil:
		return *p.Ident
	case p.Parens != nil:
		return "(" + p.Parens.String() + ")"
	}
	return ""
}

func (o *ObjectLiteral) String() string {
	fields := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		if f.Value == nil {
			fields[i] = f.Key
			continue
		}
		fields[i] = f.Key + ": " + f.Value.String()
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}
