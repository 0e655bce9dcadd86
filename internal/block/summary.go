package block

// Summary is a serializable view of a block used by tooling output.
type Summary struct {
	Kind     Kind      `json:"kind" yaml:"kind"`
	Span     Span      `json:"span" yaml:"span"`
	Open     string    `json:"open,omitempty" yaml:"open,omitempty"`
	Close    string    `json:"close,omitempty" yaml:"close,omitempty"`
	Key      string    `json:"key,omitempty" yaml:"key,omitempty"`
	Operator Operator  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Subkey   string    `json:"subkey,omitempty" yaml:"subkey,omitempty"`
	Content  string    `json:"content,omitempty" yaml:"content,omitempty"`
	Children []Summary `json:"children,omitempty" yaml:"children,omitempty"`
	Else     []Summary `json:"else,omitempty" yaml:"else,omitempty"`
}

// Summarize converts blocks into summaries.
func Summarize(blocks []Block) []Summary {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]Summary, 0, len(blocks))
	for _, b := range blocks {
		n := b.Common()
		s := Summary{Kind: b.Kind(), Span: n.Span, Open: n.Open, Close: n.Close}
		switch t := b.(type) {
		case *Literal:
			s.Content = t.Raw
		case *Comment:
			s.Content = t.Inner
		case *If:
			s.Key, s.Operator, s.Subkey = t.Key, t.Operator, t.Subkey
			s.Children = Summarize(t.Positive)
			s.Else = Summarize(t.Negative)
		case *Repeat:
			s.Key = t.Key
			s.Children = Summarize(t.Children)
		}
		out = append(out, s)
	}
	return out
}
