// Package pagespec parses the page-range and rotation arguments accepted by
// the reorder command.
package pagespec

import (
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/pdfsuite/schema"
)

// NormalizeToken lowercases a range token, spells the last page as "z" and
// closes open ranges ("5-" becomes "5-z").
func NormalizeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("empty range token: %w", schema.ErrInvalidPageRange)
	}
	token = strings.ToLower(token)
	token = strings.ReplaceAll(token, "end", "z")
	if strings.HasSuffix(token, "-") {
		token += "z"
	}
	return token, nil
}

// ParseSequence splits a comma separated list of range tokens, skipping blanks.
func ParseSequence(spec string) ([]string, error) {
	var tokens []string
	for _, raw := range strings.Split(spec, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		token, err := NormalizeToken(raw)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("provide at least one page/range token: %w", schema.ErrInvalidPageRange)
	}
	return tokens, nil
}

// Rotation rotates the output pages named by Pages by Angle degrees.
type Rotation struct {
	Angle int
	Pages string
}

// QpdfFlag renders the rotation as a relative qpdf --rotate flag.
func (r Rotation) QpdfFlag() string {
	return fmt.Sprintf("--rotate=+%d:%s", r.Angle, r.Pages)
}

// ParseRotation parses "<angle>:<pages>" where angle is a multiple of 90.
// The angle is folded into [0, 360).
func ParseRotation(value string) (Rotation, error) {
	angleText, pagesText, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Rotation{}, fmt.Errorf("rotation %q must look like <angle>:<pages>: %w", value, schema.ErrInvalidArgument)
	}
	angle, err := strconv.Atoi(strings.TrimSpace(angleText))
	if err != nil || angle%90 != 0 {
		return Rotation{}, fmt.Errorf("rotation angle %q: %w", angleText, schema.ErrInvalidRotation)
	}
	tokens, err := ParseSequence(pagesText)
	if err != nil {
		return Rotation{}, err
	}
	return Rotation{Angle: schema.NormalizeRotation(angle), Pages: strings.Join(tokens, ",")}, nil
}

// QpdfArgs builds the qpdf invocation writing source's pages to dest in the
// order given by ranges, applying rotations with a non-zero angle.
func QpdfArgs(source string, ranges []string, rotations []Rotation, dest string) []string {
	args := []string{source}
	for _, rot := range rotations {
		if rot.Angle == 0 {
			continue
		}
		args = append(args, rot.QpdfFlag())
	}
	args = append(args, "--pages", source, strings.Join(ranges, ","), "--", dest)
	return args
}
