package runner

// Fanout returns a LineFunc that delivers each line to every non-nil sink in
// order. It lets the queue's job output and the watch output share one sink.
func Fanout(sinks ...LineFunc) LineFunc {
	live := make([]LineFunc, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			live = append(live, sink)
		}
	}
	return func(line string) {
		for _, sink := range live {
			sink(line)
		}
	}
}
