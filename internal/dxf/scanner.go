package dxf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var binarySentinel = []byte("AutoCAD Binary DXF")

// tag is one group code / value pair of an ASCII DXF stream.
type tag struct {
	code  int
	value string
	line  int
}

func (t tag) float() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(t.value), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: group %d: invalid number %q", t.line, t.code, t.value)
	}
	return v, nil
}

func (t tag) int() (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(t.value))
	if err != nil {
		return 0, fmt.Errorf("line %d: group %d: invalid integer %q", t.line, t.code, t.value)
	}
	return v, nil
}

// readTags splits an ASCII DXF stream into group code pairs.
func readTags(data []byte) ([]tag, error) {
	if bytes.HasPrefix(data, binarySentinel) {
		return nil, errors.New("binary DXF is not supported")
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dxf: %w", err)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	tags := make([]tag, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		raw := strings.TrimSpace(lines[i])
		code, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group code %q", i+1, raw)
		}
		if i+1 >= len(lines) {
			return nil, fmt.Errorf("line %d: group %d has no value", i+1, code)
		}
		value := lines[i+1]
		if !isText(code) {
			value = strings.TrimSpace(value)
		}
		tags = append(tags, tag{code: code, value: value, line: i + 2})
		if code == 0 && value == "EOF" {
			break
		}
	}
	return tags, nil
}

// isText reports whether leading blanks are significant for the group code.
func isText(code int) bool {
	return code == 1 || code == 3
}

// entity is one record of the ENTITIES section. POLYLINE records carry their
// VERTEX records.
type entity struct {
	kind     string
	tags     []tag
	vertices []entity
}

func (e entity) first(code int) (string, bool) {
	for _, t := range e.tags {
		if t.code == code {
			return t.value, true
		}
	}
	return "", false
}

func (e entity) layer() string {
	if v, ok := e.first(8); ok && v != "" {
		return v
	}
	return "0"
}

func (e entity) handle() string {
	v, _ := e.first(5)
	return v
}

func (e entity) flags() int {
	v, ok := e.first(70)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimSpace(v))
	return n
}

// header returns the value of a $VARIABLE from the HEADER section.
func header(tags []tag, name string) (string, bool) {
	for i := 0; i+1 < len(tags); i++ {
		if tags[i].code == 9 && tags[i].value == name {
			return tags[i+1].value, true
		}
		if tags[i].code == 0 && tags[i].value == "ENDSEC" {
			return "", false
		}
	}
	return "", false
}

// entitiesSection groups the records of the ENTITIES section in drawing order.
func entitiesSection(tags []tag) ([]entity, error) {
	start := -1
	for i := 0; i+1 < len(tags); i++ {
		if tags[i].code == 0 && tags[i].value == "SECTION" &&
			tags[i+1].code == 2 && tags[i+1].value == "ENTITIES" {
			start = i + 2
			break
		}
	}
	if start < 0 {
		return nil, errors.New("no ENTITIES section")
	}

	var (
		out  []entity
		poly *entity
	)
	flushPoly := func() {
		if poly != nil {
			out = append(out, *poly)
			poly = nil
		}
	}
	for i := start; i < len(tags); {
		t := tags[i]
		if t.code != 0 {
			return nil, fmt.Errorf("line %d: expected entity start, found group %d", t.line, t.code)
		}
		if t.value == "ENDSEC" {
			flushPoly()
			return out, nil
		}
		j := i + 1
		for j < len(tags) && tags[j].code != 0 {
			j++
		}
		e := entity{kind: t.value, tags: tags[i+1 : j]}
		i = j

		switch e.kind {
		case "POLYLINE":
			flushPoly()
			poly = &e
		case "VERTEX":
			if poly == nil {
				return nil, fmt.Errorf("line %d: VERTEX outside POLYLINE", t.line)
			}
			poly.vertices = append(poly.vertices, e)
		case "SEQEND":
			flushPoly()
		default:
			flushPoly()
			out = append(out, e)
		}
	}
	return nil, errors.New("unterminated ENTITIES section")
}
