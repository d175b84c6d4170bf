package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Parse reads a theme definition from an io.Reader.
// The format is a simple key-value pair per line: Key: <colour>, where the
// colour is anything ParseColor accepts.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	scanner := bufio.NewScanner(r)

	val := reflect.ValueOf(t).Elem()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || (strings.HasPrefix(line, "#") && !strings.Contains(line, ":")) {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if key == "Name" {
			t.Name = value
			continue
		}

		field := val.FieldByName(key)
		if !field.IsValid() {
			continue // Unknown field, ignore for forward compatibility
		}

		if field.Type() == reflect.TypeOf(color.RGBA{}) {
			col, err := ParseColor(value)
			if err != nil {
				return nil, fmt.Errorf("invalid color for key %s: %w", key, err)
			}
			field.Set(reflect.ValueOf(col))
		}
	}

	return t, scanner.Err()
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa, rgb(r,g,b), rgba(r,g,b,a)
// with a fractional alpha, or an SVG colour name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(strings.TrimPrefix(s, "#"))
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseFunc(s)
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}

func parseHex(hex string) (color.RGBA, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{R: uint8(val >> 16), G: uint8((val >> 8) & 0xFF), B: uint8(val & 0xFF), A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{R: uint8(val >> 24), G: uint8((val >> 16) & 0xFF), B: uint8((val >> 8) & 0xFF), A: uint8(val & 0xFF)}, nil
	}
	return color.RGBA{}, fmt.Errorf("invalid hex length")
}

func parseFunc(s string) (color.RGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, fmt.Errorf("malformed %q", s)
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("malformed %q", s)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return color.RGBA{}, fmt.Errorf("channel %q out of range", parts[i])
		}
		ch[i] = uint8(v)
	}
	a := 1.0
	if len(parts) == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || v < 0 || v > 1 {
			return color.RGBA{}, fmt.Errorf("alpha %q out of range", parts[3])
		}
		a = v
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(math.Round(a * 255))}, nil
}
