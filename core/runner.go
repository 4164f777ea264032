package core

// Job is one queued external-process invocation.
//
// OnOutput receives each merged stdout/stderr line in emission order.
// OnFinished is called exactly once with the exit code and the job directory;
// spawn failures are reported as code 1.
type Job struct {
	Command    []string
	OnOutput   func(line string)
	OnFinished func(code int, dir string)
	WorkingDir string
	Name       string
}

// JobSubmitter accepts jobs for asynchronous execution. Submit never blocks on
// the job itself; results arrive through the job callbacks.
type JobSubmitter interface {
	Submit(job Job)
}
