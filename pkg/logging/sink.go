package logging

// Sink is the leveled logging surface shared by Console and Logger.
type Sink interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Tee fans every call out to all sinks. Nil sinks are skipped.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []Sink

func (t tee) Debugf(format string, args ...interface{}) {
	for _, s := range t {
		s.Debugf(format, args...)
	}
}

func (t tee) Infof(format string, args ...interface{}) {
	for _, s := range t {
		s.Infof(format, args...)
	}
}

func (t tee) Warnf(format string, args ...interface{}) {
	for _, s := range t {
		s.Warnf(format, args...)
	}
}

func (t tee) Errorf(format string, args ...interface{}) {
	for _, s := range t {
		s.Errorf(format, args...)
	}
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Warnf(string, ...interface{})  {}
func (discard) Errorf(string, ...interface{}) {}
