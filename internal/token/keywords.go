package token

// keywords maps the lowercase spelling of each fixed keyword (spec §4.4)
// to its token kind. Keyword matching is case-insensitive; everything not
// in this set lexes as IDENT.
var keywords = map[string]Token{
	"select": SELECT, "insert": INSERT, "update": UPDATE, "delete": DELETE,
	"create": CREATE, "drop": DROP, "table": TABLE, "from": FROM,
	"where": WHERE, "into": INTO, "values": VALUES, "set": SET,
	"and": AND, "or": OR, "not": NOT, "primary": PRIMARY, "key": KEY,
	"int": INT, "varchar": VARCHAR, "text": TEXT, "decimal": DECIMAL,
	"boolean": BOOLEAN, "datetime": DATETIME, "date": DATE, "like": LIKE,
	"count": COUNT, "sum": SUM, "avg": AVG, "min": MIN, "max": MAX,
	"group": GROUP, "by": BY, "having": HAVING, "as": AS,
}

// LookupIdent returns the keyword token for ident's case-insensitive
// spelling, or IDENT if it isn't a keyword.
func LookupIdent(ident string) Token {
	if isLowerASCII(ident) {
		if tok, ok := keywords[ident]; ok {
			return tok
		}
		return IDENT
	}
	lower := toLowerASCII(ident)
	if tok, ok := keywords[lower]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether ident's case-insensitive spelling is a keyword.
func IsKeyword(ident string) bool {
	return LookupIdent(ident) != IDENT
}

func isLowerASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			return false
		}
	}
	return true
}

func toLowerASCII(s string) string {
	buf := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 32
		}
		buf[i] = c
	}
	return string(buf)
}
