package calendar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// ParseWarning records a single dropped event. One malformed event never
// aborts parsing of the rest of the feed.
type ParseWarning struct {
	Line    int
	Message string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// Parser extracts VEVENT blocks from iCal feed text. Unknown properties
// and unknown block types are ignored. A structural problem (unterminated
// block) fails the whole feed with a *ParseError; anything wrong with a
// single event drops that event with a warning instead.
type Parser struct{}

// NewParser creates an iCal parser.
func NewParser() *Parser {
	return &Parser{}
}

// rawProperty is one unfolded content line split into name, parameters
// and value.
type rawProperty struct {
	name   string
	params map[string]string
	value  string
	line   int
}

// Parse parses feed text into events plus per-event warnings.
func (p *Parser) Parse(text string) ([]models.RawCalendarEvent, []ParseWarning, error) {
	return p.ParseReader(strings.NewReader(text))
}

// ParseReader reads and parses iCal data from a reader.
func (p *Parser) ParseReader(r io.Reader) ([]models.RawCalendarEvent, []ParseWarning, error) {
	props, err := unfoldLines(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		events   []models.RawCalendarEvent
		warnings []ParseWarning

		feedZone = time.UTC

		inEvent   bool
		eventLine int
		current   models.RawCalendarEvent
		startSet  bool
		endSet    bool
		eventBad  string // first per-event problem, empty if none
		skipDepth int    // nesting depth inside a block we don't extract
	)

	for _, prop := range props {
		// Skip the contents of VALARM and any other sub-block type.
		if skipDepth > 0 {
			switch prop.name {
			case "BEGIN":
				skipDepth++
			case "END":
				skipDepth--
			}
			continue
		}

		switch prop.name {
		case "BEGIN":
			if prop.value == "VEVENT" {
				if inEvent {
					// Nested VEVENT means the previous block never ended.
					return nil, nil, &ParseError{Line: prop.line, Err: fmt.Errorf("BEGIN:VEVENT inside an unterminated VEVENT")}
				}
				inEvent = true
				eventLine = prop.line
				current = models.RawCalendarEvent{}
				startSet, endSet = false, false
				eventBad = ""
			} else if inEvent {
				skipDepth = 1
			}
			// Other top-level blocks (VCALENDAR, VTIMEZONE) contribute
			// calendar-wide properties only.

		case "END":
			if prop.value != "VEVENT" || !inEvent {
				continue
			}
			inEvent = false

			if eventBad == "" {
				switch {
				case current.UID == "":
					eventBad = "event missing UID"
				case !startSet:
					eventBad = "event missing DTSTART"
				case !endSet:
					eventBad = "event missing DTEND"
				case !current.End.After(current.Start):
					eventBad = "event end is not after start"
				}
			}
			if eventBad != "" {
				warnings = append(warnings, ParseWarning{Line: eventLine, Message: eventBad})
				continue
			}
			events = append(events, current)

		case "X-WR-TIMEZONE":
			if loc, err := time.LoadLocation(prop.value); err == nil {
				feedZone = loc
			}

		case "UID":
			if inEvent {
				current.UID = strings.TrimSpace(unescapeText(prop.value))
			}
		case "SUMMARY":
			if inEvent {
				current.Summary = unescapeText(prop.value)
			}
		case "DESCRIPTION":
			if inEvent {
				current.Description = unescapeText(prop.value)
			}
		case "DTSTART":
			if inEvent {
				t, err := parseDateTime(prop, feedZone)
				if err != nil {
					eventBad = fmt.Sprintf("unparsable DTSTART %q", prop.value)
					continue
				}
				current.Start = t
				startSet = true
			}
		case "DTEND":
			if inEvent {
				t, err := parseDateTime(prop, feedZone)
				if err != nil {
					eventBad = fmt.Sprintf("unparsable DTEND %q", prop.value)
					continue
				}
				current.End = t
				endSet = true
			}
		}
	}

	if inEvent {
		return nil, nil, &ParseError{Line: eventLine, Err: fmt.Errorf("unterminated VEVENT block")}
	}
	if skipDepth > 0 {
		return nil, nil, &ParseError{Err: fmt.Errorf("unterminated component block")}
	}

	return events, warnings, nil
}

// unfoldLines reads content lines, rejoins folded continuations
// (lines prefixed by a space or tab) and splits each into a property.
func unfoldLines(r io.Reader) ([]rawProperty, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		props   []rawProperty
		pending string
		pendAt  int
		lineNo  int
	)

	flush := func() {
		if pending == "" {
			return
		}
		if prop, ok := splitContentLine(pending, pendAt); ok {
			props = append(props, prop)
		}
		pending = ""
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			pending += line[1:]
			continue
		}

		flush()
		pending = line
		pendAt = lineNo
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("reading feed: %w", err)}
	}
	flush()

	return props, nil
}

// splitContentLine parses "NAME;PARAM=V;PARAM=V:value". Lines without a
// colon are not content lines and are skipped.
func splitContentLine(line string, lineNo int) (rawProperty, bool) {
	colon := strings.Index(line, ":")
	if colon == -1 {
		return rawProperty{}, false
	}

	head := line[:colon]
	value := line[colon+1:]

	prop := rawProperty{
		params: map[string]string{},
		value:  value,
		line:   lineNo,
	}

	parts := strings.Split(head, ";")
	prop.name = strings.ToUpper(strings.TrimSpace(parts[0]))
	for _, part := range parts[1:] {
		if eq := strings.Index(part, "="); eq != -1 {
			key := strings.ToUpper(strings.TrimSpace(part[:eq]))
			prop.params[key] = strings.Trim(part[eq+1:], `"`)
		}
	}

	return prop, prop.name != ""
}

// unescapeText reverses iCal text escaping for comma, semicolon,
// backslash and newline.
func unescapeText(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// parseDateTime parses a DTSTART/DTEND value. All-day dates become
// midnight in the property's TZID, or the feed's stated zone, or UTC.
func parseDateTime(prop rawProperty, feedZone *time.Location) (time.Time, error) {
	loc := feedZone
	if tzid := prop.params["TZID"]; tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}

	value := strings.TrimSpace(prop.value)

	if prop.params["VALUE"] == "DATE" || len(value) == 8 {
		if t, err := time.ParseInLocation("20060102", value, loc); err == nil {
			return t, nil
		}
	}

	if strings.HasSuffix(value, "Z") {
		if t, err := time.Parse("20060102T150405Z", value); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t, nil
		}
	}
	for _, format := range []string{
		"20060102T150405",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(format, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date value %q", value)
}
