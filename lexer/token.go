package lexer

// Category identifies the lexical rule that produced a token.
type Category uint8

const (
	Unknown Category = iota

	BlockComment // /* ... */
	LineComment  // // ... (with \ continuations)
	String       // "..."
	Char         // 'c'
	Preprocessor // #include, #define, ...
	IncludePath  // <stdio.h>
	Bracket      // ( ) [ ] { }
	Operator     // -> << >> || && -- ++ +=
	Punctuation  // single-character operators and separators
	Ident        // identifiers and keywords
	Number       // numeric constants
	Whitespace   // never yielded
)

var categoryNames = map[Category]string{
	Unknown:      "UNKNOWN",
	BlockComment: "COMMENT",
	LineComment:  "COMMENT",
	String:       "STRING",
	Char:         "CHAR",
	Preprocessor: "PREPROC",
	IncludePath:  "INCLUDE",
	Bracket:      "BRACKET",
	Operator:     "OPERATOR",
	Punctuation:  "PUNCT",
	Ident:        "IDENT",
	Number:       "NUMBER",
	Whitespace:   "SPACE",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is a single lexical unit. Start and End are byte offsets of the
// trimmed text in the tokenized input, so input[Start:End] == Text.
type Token struct {
	Text     string
	Start    int // Byte offset into the input
	End      int // End offset (exclusive)
	Index    int // Position among the yielded tokens, 0-based
	Category Category
}

// Len returns the length of the token in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}
