package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pkt.systems/pdfsuite/core"
	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

// execution is one job's child process, merged output pipe and command.log.
type execution struct {
	job     core.Job
	dir     string
	logFile *os.File
	log     pslog.Logger
}

// run executes job to completion and returns its exit code and directory.
func (q *Queue) run(job core.Job, log pslog.Logger) (int, string) {
	dir, err := createJobDir(q.root, q.now(), job.Name)
	if err != nil {
		log.Error("job dir failed", "err", err)
		emitLine(log, job.OnOutput, spawnFailureLine(err))
		return 1, ""
	}
	logFile, err := os.Create(filepath.Join(dir, commandLogFilename))
	if err != nil {
		log.Error("job log create failed", "dir", dir, "err", err)
		emitLine(log, job.OnOutput, spawnFailureLine(err))
		return 1, dir
	}
	ex := &execution{job: job, dir: dir, logFile: logFile, log: log}
	defer ex.close()

	ex.writeLog("$ " + RenderCommand(job.Command))
	code := ex.start()
	ex.writeLog(fmt.Sprintf("[runner] exit %d", code))
	return code, dir
}

func (ex *execution) start() int {
	if len(ex.job.Command) == 0 {
		return ex.fail(schema.ErrEmptyCommand)
	}
	cmd := exec.Command(ex.job.Command[0], ex.job.Command[1:]...)
	cmd.Dir = ex.job.WorkingDir
	reader, writer, err := os.Pipe()
	if err != nil {
		return ex.fail(err)
	}
	cmd.Stdout = writer
	cmd.Stderr = writer

	ex.log.Info("job start", "dir", ex.dir, "argv", ex.job.Command)
	if err := cmd.Start(); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return ex.fail(err)
	}
	_ = writer.Close()
	if cmd.Process != nil {
		ex.log.Debug("job started", "pid", cmd.Process.Pid)
	}

	lines, err := streamLines(reader, func(line string) {
		ex.writeLog(line)
		emitLine(ex.log, ex.job.OnOutput, line)
	})
	if err != nil {
		ex.log.Warn("job output read failed", "err", err)
		_, _ = io.Copy(io.Discard, reader)
	}
	_ = reader.Close()
	ex.log.Debug("job output completed", "lines", lines)

	return exitCode(ex.log, cmd.Wait(), cmd)
}

func (ex *execution) fail(err error) int {
	ex.log.Warn("job start failed", "err", err)
	line := spawnFailureLine(err)
	ex.writeLog(line)
	emitLine(ex.log, ex.job.OnOutput, line)
	return 1
}

func (ex *execution) writeLog(line string) {
	if ex.logFile == nil {
		return
	}
	if _, err := io.WriteString(ex.logFile, line+"\n"); err != nil {
		ex.log.Warn("job log write failed", "err", err)
		_ = ex.logFile.Close()
		ex.logFile = nil
	}
}

func (ex *execution) close() {
	if ex.logFile == nil {
		return
	}
	if err := ex.logFile.Close(); err != nil {
		ex.log.Warn("job log close failed", "err", err)
	}
	ex.logFile = nil
}

func spawnFailureLine(err error) string {
	return "Failed to start command: " + err.Error()
}

// streamLines calls fn for every line read from r, without trailing
// whitespace. Lines have no length limit. A final line without a newline is
// still delivered.
func streamLines(r io.Reader, fn func(string)) (int, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	count := 0
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			count++
			fn(strings.TrimRight(line, " \t\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, err
		}
	}
}

// exitCode converts the result of cmd.Wait into a process exit code. A
// signal-terminated child reports -1.
func exitCode(log pslog.Logger, waitErr error, cmd *exec.Cmd) int {
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			log.Error("job wait failed", "err", waitErr)
			if cmd.ProcessState == nil {
				return 1
			}
		} else if sig := signalName(exitErr); sig != "" {
			log.Info("job terminated by signal", "signal", sig)
		}
	}
	if cmd.ProcessState == nil {
		return 1
	}
	return cmd.ProcessState.ExitCode()
}
