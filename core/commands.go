package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pkt.systems/pdfsuite/schema"
)

// PageRotation rotates the listed 1-based output positions by Angle degrees.
type PageRotation struct {
	Angle     int
	Positions []int
}

// String renders the rotation as the reorder command's "<angle>:<positions>" value.
func (r PageRotation) String() string {
	return fmt.Sprintf("%d:%s", r.Angle, JoinPages(r.Positions))
}

// CLICommand returns an invocation of the pdfsuite executable with the given parts.
func CLICommand(exe string, parts ...string) []string {
	if strings.TrimSpace(exe) == "" {
		exe = "pdfsuite"
	}
	return append([]string{exe}, parts...)
}

// JoinPages renders page numbers as a comma separated list.
func JoinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, page := range pages {
		parts[i] = strconv.Itoa(page)
	}
	return strings.Join(parts, ",")
}

// ReorderCommand builds the reorder invocation that writes source's pages to
// dest in the given order.
func ReorderCommand(exe, source string, order []int, rotations []PageRotation, dest string) []string {
	args := []string{"reorder", source, "--order", JoinPages(order)}
	for _, rot := range rotations {
		if len(rot.Positions) == 0 {
			continue
		}
		args = append(args, "--rotate", rot.String())
	}
	args = append(args, "-o", dest)
	return CLICommand(exe, args...)
}

// BookmarksDumpCommand builds the invocation exporting source's bookmarks into out.
func BookmarksDumpCommand(exe, source, out string) []string {
	return CLICommand(exe, "bookmarks", "dump", source, "-o", out)
}

// BookmarksApplyCommand builds the invocation writing dump's bookmarks into a copy of source.
func BookmarksApplyCommand(exe, source, dump, out string) []string {
	return CLICommand(exe, "bookmarks", "apply", source, dump, "-o", out)
}

// WatchCommand builds the long-lived folder watcher invocation.
func WatchCommand(settings schema.WatchSettings) []string {
	preset := settings.Preset
	if preset == "" {
		preset = "report"
	}
	args := []string{"watch", "--preset", preset}
	if settings.Folder != "" {
		args = append(args, "--path", settings.Folder)
	}
	if settings.TargetSizeMB > 0 {
		args = append(args, "--target-size", strconv.FormatFloat(settings.TargetSizeMB, 'f', -1, 64))
	}
	return CLICommand(settings.Executable, args...)
}

// rotationsByPosition groups non-zero page rotations by angle, mapping each
// page number to its 1-based position in order.
func rotationsByPosition(order []int, rotations map[int]int) []PageRotation {
	if len(rotations) == 0 {
		return nil
	}
	byAngle := map[int][]int{}
	for idx, page := range order {
		angle := rotations[page]
		if angle == 0 {
			continue
		}
		byAngle[angle] = append(byAngle[angle], idx+1)
	}
	angles := make([]int, 0, len(byAngle))
	for angle := range byAngle {
		angles = append(angles, angle)
	}
	slices.Sort(angles)
	out := make([]PageRotation, 0, len(angles))
	for _, angle := range angles {
		out = append(out, PageRotation{Angle: angle, Positions: byAngle[angle]})
	}
	return out
}
