package layout

import (
	"fmt"
	"strings"
	"unicode"
)

// Concealed category slugs.
const (
	CategoryConduitPipe       = "conduit-pipe"
	CategoryWiringCable       = "wiring-cable"
	CategoryJunctionBox       = "junction-box"
	CategoryDistributionBoard = "distribution-board"
	CategoryMCBDP             = "mcb-dp"
	CategoryModularBox        = "modular-box"
	CategoryEarthing          = "earthing"
	CategoryNetworkCabling    = "network-cabling"
	CategoryConcealedWorks    = "concealed-works"
)

// ConcealedCategories lists the fixed slugs in display order.
var ConcealedCategories = []string{
	CategoryConduitPipe,
	CategoryWiringCable,
	CategoryJunctionBox,
	CategoryDistributionBoard,
	CategoryMCBDP,
	CategoryModularBox,
	CategoryEarthing,
	CategoryNetworkCabling,
}

// MatchKind selects how a rule pattern is tested against product text.
type MatchKind int

const (
	// MatchContains matches the pattern anywhere in the text.
	MatchContains MatchKind = iota
	// MatchWord matches the pattern only as a whole word, for short tokens
	// such as "db" or "mcb".
	MatchWord
)

func (k MatchKind) String() string {
	if k == MatchWord {
		return "word"
	}
	return "contains"
}

// Rule tags products whose text matches Pattern with Category.
type Rule struct {
	Kind     MatchKind
	Pattern  string
	Category string
}

// Classification is the outcome of Classify. Category is empty for visible
// products.
type Classification struct {
	Concealed bool
	Category  string
}

// Classifier evaluates an ordered rule table. The first matching rule wins.
type Classifier struct {
	rules []Rule
}

// DefaultRules is the built-in concealed-works taxonomy. Order matters:
// specific phrases precede generic words so "earth wire" lands in earthing
// rather than wiring.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, 40)
	for _, slug := range ConcealedCategories {
		rules = append(rules, Rule{Kind: MatchContains, Pattern: slug, Category: slug})
	}
	return append(rules,
		Rule{MatchContains, "network cabl", CategoryNetworkCabling},
		Rule{MatchContains, "lan cable", CategoryNetworkCabling},
		Rule{MatchWord, "cat6", CategoryNetworkCabling},
		Rule{MatchWord, "cat5e", CategoryNetworkCabling},
		Rule{MatchWord, "utp", CategoryNetworkCabling},
		Rule{MatchContains, "conduit", CategoryConduitPipe},
		Rule{MatchContains, "earthing", CategoryEarthing},
		Rule{MatchContains, "earth wire", CategoryEarthing},
		Rule{MatchContains, "earth pit", CategoryEarthing},
		Rule{MatchContains, "junction", CategoryJunctionBox},
		Rule{MatchContains, "distribution board", CategoryDistributionBoard},
		Rule{MatchWord, "db", CategoryDistributionBoard},
		Rule{MatchContains, "breaker", CategoryMCBDP},
		Rule{MatchWord, "mcb", CategoryMCBDP},
		Rule{MatchWord, "mccb", CategoryMCBDP},
		Rule{MatchWord, "rccb", CategoryMCBDP},
		Rule{MatchWord, "elcb", CategoryMCBDP},
		Rule{MatchContains, "isolator", CategoryMCBDP},
		Rule{MatchContains, "modular box", CategoryModularBox},
		Rule{MatchContains, "concealed box", CategoryModularBox},
		Rule{MatchContains, "wiring", CategoryWiringCable},
		Rule{MatchContains, "cable", CategoryWiringCable},
		Rule{MatchWord, "wire", CategoryWiringCable},
		Rule{MatchWord, "wires", CategoryWiringCable},
		Rule{MatchContains, "concealed", CategoryConcealedWorks},
	)
}

var defaultClassifier = NewClassifier(DefaultRules()...)

// DefaultClassifier returns the classifier built from DefaultRules.
func DefaultClassifier() *Classifier { return defaultClassifier }

// NewClassifier builds a classifier from rules. Patterns are lower-cased;
// rules with an empty pattern or category are dropped.
func NewClassifier(rules ...Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		r.Pattern = strings.ToLower(strings.TrimSpace(r.Pattern))
		r.Category = strings.TrimSpace(r.Category)
		if r.Pattern == "" || r.Category == "" {
			continue
		}
		c.rules = append(c.rules, r)
	}
	return c
}

// Extend returns a classifier evaluating extra after the receiver's rules.
func (c *Classifier) Extend(extra ...Rule) *Classifier {
	return NewClassifier(append(c.Rules(), extra...)...)
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	if c == nil {
		return DefaultRules()
	}
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify tags a product as concealed when any rule matches its name, code,
// category or description. Missing text is simply not matched.
func (c *Classifier) Classify(p Product) Classification {
	if c == nil {
		c = defaultClassifier
	}
	text := haystack(p.Name, p.Code, p.Category, p.Description)
	if text == "" {
		return Classification{}
	}
	var words map[string]struct{}
	for _, r := range c.rules {
		switch r.Kind {
		case MatchWord:
			if words == nil {
				words = tokenize(text)
			}
			if _, ok := words[r.Pattern]; ok {
				return Classification{Concealed: true, Category: r.Category}
			}
		default:
			if strings.Contains(text, r.Pattern) {
				return Classification{Concealed: true, Category: r.Category}
			}
		}
	}
	return Classification{}
}

// ParseRules reads a comma separated list of "pattern=category" entries.
// A "word:" prefix on the pattern selects whole-word matching.
func ParseRules(raw string) ([]Rule, error) {
	var rules []Rule
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pattern, category, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(pattern) == "" || strings.TrimSpace(category) == "" {
			return nil, fmt.Errorf("layout: malformed classifier rule %q", entry)
		}
		kind := MatchContains
		pattern = strings.TrimSpace(pattern)
		if rest, found := strings.CutPrefix(pattern, "word:"); found {
			kind = MatchWord
			pattern = strings.TrimSpace(rest)
			// Text is matched token by token, so a word pattern is one token.
			if pattern == "" || strings.ContainsFunc(pattern, isSeparator) {
				return nil, fmt.Errorf("layout: word rule %q must be a single word", entry)
			}
		}
		rules = append(rules, Rule{Kind: kind, Pattern: pattern, Category: strings.TrimSpace(category)})
	}
	return rules, nil
}

func haystack(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(p))
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(text, isSeparator)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
