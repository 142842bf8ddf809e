package logging

import (
	"time"
)

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Strings(key string, value []string) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Error records err under "error"; a nil error is recorded as null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field { return Field{Key: key, Value: value} }

func Component(name string) Field { return String("component", name) }

func Latency(d time.Duration) Field { return Duration("latency", d) }

func Count(n int) Field { return Int("count", n) }

// Domain fields.

func Node(name string) Field { return String("node", name) }

func Channel(ch int) Field { return Int("channel", ch) }

func Power(p float64) Field { return Float64("power", p) }

func Stage(stage string) Field { return String("stage", stage) }

func Batch(id string) Field { return String("batch", id) }

func Flow(id string) Field { return String("flow", id) }

// Link renders l with its String method, e.g. "t1/1-r1/1".
func Link(l interface{ String() string }) Field { return String("link", l.String()) }

func Endpoints(src, dst string) Field { return String("endpoints", src+"->"+dst) }

func URL(u string) Field { return String("url", u) }

func Status(code int) Field { return Int("status", code) }
