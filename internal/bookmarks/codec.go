package bookmarks

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	keyBegin = "BookmarkBegin"
	keyTitle = "BookmarkTitle"
	keyLevel = "BookmarkLevel"
	keyPage  = "BookmarkPageNumber"
	keyZoom  = "BookmarkZoom"

	// DefaultTitle replaces a missing BookmarkTitle.
	DefaultTitle = "Untitled"
)

// Node is one outline entry. Level 1 is a root.
type Node struct {
	Title    string
	Level    int
	Page     int
	Zoom     string
	Children []*Node
}

// Flatten returns the node and all of its descendants in pre-order.
func (n *Node) Flatten() []*Node {
	if n == nil {
		return nil
	}
	out := []*Node{n}
	for _, child := range n.Children {
		out = append(out, child.Flatten()...)
	}
	return out
}

// Flatten returns every node of the forest in pre-order.
func Flatten(nodes []*Node) []*Node {
	var out []*Node
	for _, node := range nodes {
		out = append(out, node.Flatten()...)
	}
	return out
}

// Parse reads dump text into a forest. Lines before the first BookmarkBegin and
// lines without a colon are ignored. Only the single space after the colon is
// stripped from values, so titles keep their own leading and trailing spaces. Missing or unparsable fields fall back to
// DefaultTitle and level/page 1.
func Parse(text string) []*Node {
	var (
		roots []*Node
		stack []*Node
	)
	for _, record := range splitRecords(text) {
		node := nodeFromRecord(record)
		for len(stack) > 0 && stack[len(stack)-1].Level >= node.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
		stack = append(stack, node)
	}
	return roots
}

func splitRecords(text string) []map[string]string {
	var (
		records []map[string]string
		current map[string]string
	)
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == keyBegin {
			if current != nil {
				records = append(records, current)
			}
			current = map[string]string{}
			continue
		}
		if current == nil {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		current[strings.TrimSpace(key)] = strings.TrimPrefix(value, " ")
	}
	if current != nil {
		records = append(records, current)
	}
	return records
}

func nodeFromRecord(record map[string]string) *Node {
	title, ok := record[keyTitle]
	if !ok {
		title = DefaultTitle
	}
	return &Node{
		Title: title,
		Level: positiveInt(record[keyLevel]),
		Page:  positiveInt(record[keyPage]),
		Zoom:  strings.TrimSpace(record[keyZoom]),
	}
}

func positiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Serialize writes the forest in pre-order, one record per node. The output
// is newline-terminated and empty for an empty forest.
func Serialize(nodes []*Node) string {
	var b strings.Builder
	for _, node := range Flatten(nodes) {
		fmt.Fprintf(&b, "%s\n%s: %s\n%s: %d\n%s: %d\n",
			keyBegin,
			keyTitle, node.Title,
			keyLevel, node.Level,
			keyPage, node.Page,
		)
		if node.Zoom != "" {
			fmt.Fprintf(&b, "%s: %s\n", keyZoom, node.Zoom)
		}
	}
	return b.String()
}

// ParseFile reads and parses a dump file.
func ParseFile(path string) ([]*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// WriteFile serializes nodes into path.
func WriteFile(path string, nodes []*Node) error {
	if err := os.WriteFile(path, []byte(Serialize(nodes)), 0o644); err != nil {
		return fmt.Errorf("write bookmarks %s: %w", path, err)
	}
	return nil
}
