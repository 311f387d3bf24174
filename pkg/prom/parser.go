package prom

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// TextParser parses a Prometheus text exposition (v0.0.4) into a slice of
// MetricFamily values, one per canonical name, in first-seen order.
//
// A TextParser is single-shot: once Parse has returned, its internal state
// is discarded. Create a new TextParser per parse; instances are never
// shared between concurrent scrapes.
type TextParser struct{}

// parseState owns the families being built during one Parse call.
type parseState struct {
	byName map[string]*MetricFamily
	order  []string
}

func newParseState() *parseState {
	return &parseState{byName: make(map[string]*MetricFamily)}
}

// getOrCreate returns the family under name, creating it with kind if it
// does not yet exist.
func (st *parseState) getOrCreate(name string, kind MetricKind) (mf *MetricFamily, created bool) {
	if mf, ok := st.byName[name]; ok {
		return mf, false
	}
	mf = &MetricFamily{Name: name, Kind: kind}
	st.byName[name] = mf
	st.order = append(st.order, name)
	return mf, true
}

func (st *parseState) families() []*MetricFamily {
	out := make([]*MetricFamily, len(st.order))
	for i, name := range st.order {
		out[i] = st.byName[name]
	}
	return out
}

// Parse consumes r in full and returns the parsed families, or the first
// fatal ParseError encountered (tagged with its 1-based line number).
func (p *TextParser) Parse(r io.Reader) ([]*MetricFamily, error) {
	cr := newCharReader(r)
	st := newParseState()

	for {
		b, ok := cr.peek()
		if !ok {
			break
		}

		if b == ' ' || b == '\t' {
			cr.skipBlanks()
			b, ok = cr.peek()
			if !ok {
				break // trailing blank line with no newline, tolerated at EOF
			}
		}

		if b == '\n' {
			cr.read()
			continue
		}

		var err error
		if b == '#' {
			err = parseCommentLine(cr, st)
		} else {
			err = parseSampleLine(cr, st)
		}
		if err != nil {
			if rerr := cr.readErr(); rerr != nil {
				return nil, &ReadError{Err: rerr}
			}
			return nil, err
		}
	}

	if err := cr.readErr(); err != nil {
		return nil, &ReadError{Err: err}
	}
	return st.families(), nil
}

// requireNewline consumes the '\n' a non-blank line must end with. Reaching
// EOF here (no trailing newline) is fatal — the EOF-without-newline
// allowance applies only to a wholly blank trailing line.
func requireNewline(cr *charReader, lineNo int) error {
	b, ok := cr.peek()
	if !ok {
		if err := cr.readErr(); err != nil {
			return &ReadError{Err: err}
		}
		return parseErrf(lineNo, "unexpected EOF: line not terminated by newline")
	}
	if b != '\n' {
		return parseErrf(lineNo, "expected newline, found %q", b)
	}
	cr.read()
	return nil
}

// --- comment / directive lines ---------------------------------------------

func parseCommentLine(cr *charReader, st *parseState) error {
	lineNo := cr.lineNo()
	cr.read() // consume '#'
	cr.skipBlanks()

	kw := cr.readUntil(blankOrNewline)
	switch kw {
	case "HELP":
		return parseHelpDirective(cr, st, lineNo)
	case "TYPE":
		return parseTypeDirective(cr, st, lineNo)
	default:
		return skipCommentRest(cr, lineNo)
	}
}

// skipCommentRest discards whatever remains of a generic "# ..." comment. A
// comment line is a non-blank line like any other: it must end with '\n',
// and reaching EOF first is fatal (the EOF-without-newline allowance is
// reserved for a wholly blank trailing line, not a truncated comment).
func skipCommentRest(cr *charReader, lineNo int) error {
	for {
		b, ok := cr.peek()
		if !ok {
			if err := cr.readErr(); err != nil {
				return &ReadError{Err: err}
			}
			return parseErrf(lineNo, "unexpected EOF: line not terminated by newline")
		}
		if b == '\n' {
			cr.read()
			return nil
		}
		cr.read()
	}
}

func parseHelpDirective(cr *charReader, st *parseState, lineNo int) error {
	cr.skipBlanks()
	name, err := readMetricName(cr, lineNo, false)
	if err != nil {
		return err
	}
	if name == "" {
		return parseErrf(lineNo, "HELP: missing metric name")
	}
	cr.skipBlanks()

	text, err := readEscapedText(cr, lineNo, false)
	if err != nil {
		return err
	}

	mf, _ := st.getOrCreate(name, KindUntyped)
	mf.Help = text
	return requireNewline(cr, lineNo)
}

func parseTypeDirective(cr *charReader, st *parseState, lineNo int) error {
	cr.skipBlanks()
	name, err := readMetricName(cr, lineNo, false)
	if err != nil {
		return err
	}
	if name == "" {
		return parseErrf(lineNo, "TYPE: missing metric name")
	}
	cr.skipBlanks()

	kindTok := cr.readUntil(blankOrNewline)
	kind, ok := parseKindToken(kindTok)
	if !ok {
		return parseErrf(lineNo, "TYPE: unknown metric kind %q", kindTok)
	}

	mf, created := st.getOrCreate(name, kind)
	if !created {
		if len(mf.Metrics) > 0 {
			return parseErrf(lineNo, "TYPE: family %q already has samples", name)
		}
		mf.Kind = kind
	}

	cr.skipBlanks()
	return requireNewline(cr, lineNo)
}

func parseKindToken(s string) (MetricKind, bool) {
	switch s {
	case "counter":
		return KindCounter, true
	case "gauge":
		return KindGauge, true
	case "histogram":
		return KindHistogram, true
	case "summary":
		return KindSummary, true
	case "untyped":
		return KindUntyped, true
	default:
		return 0, false
	}
}

// readEscapedText reads HELP free text (quoted=false) up to, but not
// including, the line's terminating '\n', resolving \\ -> \ and \n -> a
// literal newline. Any other \X is fatal. When quoted is true \" -> " is
// also accepted and a closing '"' ends the text instead of '\n' — used for
// label values.
func readEscapedText(cr *charReader, lineNo int, quoted bool) (string, error) {
	buf := make([]byte, 0, 32)
	for {
		b, ok := cr.peek()
		if !ok {
			if err := cr.readErr(); err != nil {
				return "", &ReadError{Err: err}
			}
			if quoted {
				return "", parseErrf(lineNo, "label value: missing closing quote")
			}
			return string(buf), nil // caller consumes the (absent) trailing newline
		}
		if !quoted && b == '\n' {
			return string(buf), nil
		}
		if quoted && b == '\n' {
			return "", parseErrf(lineNo, "label value: unterminated string (newline before closing quote)")
		}
		cr.read()
		if quoted && b == '"' {
			return string(buf), nil
		}
		if b != '\\' {
			buf = append(buf, b)
			continue
		}
		nb, ok := cr.peek()
		if !ok {
			if err := cr.readErr(); err != nil {
				return "", &ReadError{Err: err}
			}
			return "", parseErrf(lineNo, "unexpected EOF after escape")
		}
		switch nb {
		case '\\':
			cr.read()
			buf = append(buf, '\\')
		case 'n':
			cr.read()
			buf = append(buf, '\n')
		case '"':
			if !quoted {
				return "", parseErrf(lineNo, `invalid escape \"`)
			}
			cr.read()
			buf = append(buf, '"')
		default:
			return "", parseErrf(lineNo, "invalid escape \\%c", nb)
		}
	}
}

// --- name / label lexing ----------------------------------------------------

func isNameStart(b byte) bool {
	return b == '_' || b == ':' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameCont(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}

func isLabelNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isLabelNameCont(b byte) bool {
	return isLabelNameStart(b) || (b >= '0' && b <= '9')
}

// readMetricName reads a metric name. In sample mode, '{' also terminates
// the name; in directive mode it does not (directive names are always
// followed by whitespace).
func readMetricName(cr *charReader, lineNo int, sampleMode bool) (string, error) {
	b, ok := cr.peek()
	if !ok || !isNameStart(b) {
		return "", parseErrf(lineNo, "expected metric name")
	}
	buf := make([]byte, 0, 32)
	for {
		b, ok := cr.peek()
		if !ok {
			break
		}
		if b == ' ' || b == '\t' || b == '\n' {
			break
		}
		if sampleMode && b == '{' {
			break
		}
		if !isNameCont(b) {
			return "", parseErrf(lineNo, "invalid character %q in metric name", b)
		}
		cr.read()
		buf = append(buf, b)
	}
	return string(buf), nil
}

func readLabelName(cr *charReader, lineNo int) (string, error) {
	b, ok := cr.peek()
	if !ok || !isLabelNameStart(b) {
		return "", parseErrf(lineNo, "empty or invalid label name")
	}
	buf := make([]byte, 0, 16)
	for {
		b, ok := cr.peek()
		if !ok {
			return "", parseErrf(lineNo, "unexpected EOF in label name")
		}
		if isLabelNameCont(b) {
			cr.read()
			buf = append(buf, b)
			continue
		}
		if b == ' ' || b == '\t' || b == '=' {
			return string(buf), nil
		}
		return "", parseErrf(lineNo, "invalid character %q in label name", b)
	}
}

func readLabelValue(cr *charReader, lineNo int) (string, error) {
	b, ok := cr.peek()
	if !ok || b != '"' {
		return "", parseErrf(lineNo, "label value: missing opening quote")
	}
	cr.read()
	return readEscapedText(cr, lineNo, true)
}

// parseLabels parses the "{...}" block, consuming the opening '{' that the
// caller has already peeked but not consumed.
func parseLabels(cr *charReader, lineNo int) ([]LabelPair, error) {
	cr.read() // consume '{'
	cr.skipBlanks()

	var labels []LabelPair
	b, ok := cr.peek()
	if ok && b == '}' {
		cr.read()
		return labels, nil
	}

	for {
		cr.skipBlanks()
		name, err := readLabelName(cr, lineNo)
		if err != nil {
			return nil, err
		}
		cr.skipBlanks()

		b, ok = cr.peek()
		if !ok || b != '=' {
			return nil, parseErrf(lineNo, "label block: expected '='")
		}
		cr.read()
		cr.skipBlanks()

		val, err := readLabelValue(cr, lineNo)
		if err != nil {
			return nil, err
		}
		labels = append(labels, LabelPair{Name: name, Value: val})

		cr.skipBlanks()
		b, ok = cr.peek()
		if !ok {
			if err := cr.readErr(); err != nil {
				return nil, &ReadError{Err: err}
			}
			return nil, parseErrf(lineNo, "label block: unexpected EOF")
		}
		switch b {
		case ',':
			cr.read()
			continue
		case '}':
			cr.read()
			return labels, nil
		default:
			return nil, parseErrf(lineNo, "label block: expected ',' or '}', found %q", b)
		}
	}
}

// --- value / timestamp lexing ------------------------------------------------

// isOtherSpellingOfSpecial reports whether tok is some case variant of
// inf/infinity/nan other than the three exact spellings this format
// accepts. strconv.ParseFloat itself recognizes these case-insensitively,
// so they must be rejected explicitly before falling through to it —
// otherwise "NaN", "nan", "Infinity", etc. would silently parse instead of
// being the fatal errors this format requires.
func isOtherSpellingOfSpecial(tok string) bool {
	switch {
	case tok == "+Inf" || tok == "-Inf" || tok == "Nan":
		return false
	case strings.EqualFold(tok, "nan"):
		return true
	case strings.EqualFold(tok, "inf"), strings.EqualFold(tok, "+inf"), strings.EqualFold(tok, "-inf"):
		return true
	case strings.EqualFold(tok, "infinity"), strings.EqualFold(tok, "+infinity"), strings.EqualFold(tok, "-infinity"):
		return true
	default:
		return false
	}
}

func parseValueToken(tok string, lineNo int) (float64, error) {
	switch tok {
	case "+Inf":
		return math.Inf(1), nil
	case "-Inf":
		return math.Inf(-1), nil
	case "Nan":
		return math.NaN(), nil
	}
	if isOtherSpellingOfSpecial(tok) {
		return 0, parseErrf(lineNo, "invalid value %q", tok)
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, parseErrf(lineNo, "invalid value %q", tok)
	}
	return v, nil
}

func parseTimestampToken(tok string, lineNo int) (int64, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, parseErrf(lineNo, "invalid timestamp %q", tok)
	}
	return v, nil
}
