package dxf

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DefaultCodePage is assumed when a non UTF-8 drawing declares none.
const DefaultCodePage = "ANSI_1252"

var codePages = map[string]encoding.Encoding{
	"ANSI_874":   charmap.Windows874,
	"ANSI_936":   simplifiedchinese.GBK,
	"ANSI_1250":  charmap.Windows1250,
	"ANSI_1251":  charmap.Windows1251,
	"ANSI_1252":  charmap.Windows1252,
	"ANSI_1253":  charmap.Windows1253,
	"ANSI_1254":  charmap.Windows1254,
	"ANSI_1255":  charmap.Windows1255,
	"ANSI_1256":  charmap.Windows1256,
	"ANSI_1257":  charmap.Windows1257,
	"ANSI_1258":  charmap.Windows1258,
	"DOS437":     charmap.CodePage437,
	"DOS850":     charmap.CodePage850,
	"DOS852":     charmap.CodePage852,
	"DOS866":     charmap.CodePage866,
	"ISO8859-1":  charmap.ISO8859_1,
	"ISO8859-15": charmap.ISO8859_15,
}

// declaredCodePage finds $DWGCODEPAGE without decoding the stream. The HEADER
// section is ASCII in every supported code page.
func declaredCodePage(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	found := false
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case found:
			// skip the group code line that follows the variable name
			n++
			if n == 2 {
				return strings.ToUpper(line)
			}
		case line == "$DWGCODEPAGE":
			found = true
		case line == "ENTITIES":
			return ""
		}
	}
	return ""
}

// toUTF8 returns data as UTF-8 and the code page used to decode it.
func toUTF8(data []byte) ([]byte, string, error) {
	declared := declaredCodePage(data)
	if utf8.Valid(data) {
		return data, declared, nil
	}
	page := declared
	enc, ok := codePages[page]
	if !ok {
		page = DefaultCodePage
		enc = codePages[page]
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, page, fmt.Errorf("decode %s: %w", page, err)
	}
	return out, page, nil
}

// unescapeUnicode expands the \U+XXXX sequences used for characters outside
// the drawing code page.
func unescapeUnicode(s string) string {
	if !strings.Contains(s, `\U+`) && !strings.Contains(s, `\u+`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if i+7 <= len(s) && s[i] == '\\' && (s[i+1] == 'U' || s[i+1] == 'u') && s[i+2] == '+' {
			if r, err := strconv.ParseUint(s[i+3:i+7], 16, 32); err == nil {
				b.WriteRune(rune(r))
				i += 7
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
