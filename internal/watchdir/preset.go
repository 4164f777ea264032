package watchdir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pkt.systems/pdfsuite/schema"
)

// Preset is a Ghostscript optimization profile. Each attempt uses the next
// lower image resolution until the size goal is met.
type Preset struct {
	Name        string
	Flags       []string
	Resolutions []int
}

var presets = map[string]Preset{
	"email": {
		Name:        "email",
		Flags:       []string{"-dPDFSETTINGS=/screen", "-dDetectDuplicateImages=true", "-dDownsampleColorImages=true"},
		Resolutions: []int{150, 120, 96},
	},
	"report": {
		Name:        "report",
		Flags:       []string{"-dPDFSETTINGS=/printer", "-dDetectDuplicateImages=true", "-dDownsampleColorImages=true"},
		Resolutions: []int{300, 240, 200},
	},
	"poster": {
		Name:        "poster",
		Flags:       []string{"-dPDFSETTINGS=/prepress", "-dCompressFonts=true", "-dSubsetFonts=true"},
		Resolutions: []int{400, 320, 240},
	},
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (Preset, error) {
	preset, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("preset %q (choose from %s): %w", name, strings.Join(PresetNames(), ", "), schema.ErrUnknownPreset)
	}
	return preset, nil
}

// Attempts reports how many resolution steps the preset allows.
func (p Preset) Attempts() int {
	return max(1, len(p.Resolutions))
}

// GSFlags returns the Ghostscript flags for the given attempt.
func (p Preset) GSFlags(attempt int) []string {
	flags := slices.Clone(p.Flags)
	if len(p.Resolutions) == 0 {
		return flags
	}
	res := strconv.Itoa(p.Resolutions[min(attempt, len(p.Resolutions)-1)])
	return append(flags,
		"-dColorImageResolution="+res,
		"-dGrayImageResolution="+res,
		"-dMonoImageResolution="+res,
	)
}
