package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"pkt.systems/pdfsuite/schema"
)

const (
	jobDirTimeLayout   = "20060102-150405"
	maxJobDirAttempts  = 10000
	commandLogFilename = "command.log"
)

// createJobDir creates <root>/<timestamp>-<slug>, appending -1, -2, ... when
// the name is taken.
func createJobDir(root string, now time.Time, name string) (string, error) {
	base := now.Format(jobDirTimeLayout) + "-" + schema.NormalizeJobName(name)
	for n := 0; n < maxJobDirAttempts; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		path := filepath.Join(root, candidate)
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create job dir: %w", err)
		}
	}
	return "", fmt.Errorf("create job dir %s: too many collisions", base)
}
