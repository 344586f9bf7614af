package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugfNoOpWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf, LevelDebug)
	l := r.For(ComponentSPU)

	l.Debugf("voice %d fired", 3)
	if buf.Len() != 0 {
		t.Errorf("Debugf wrote output for a disabled component: %q", buf.String())
	}
}

func TestDebugfWritesWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf, LevelDebug)
	r.Enable(ComponentSPU, true)

	r.For(ComponentSPU).Debugf("voice %d fired", 3)
	if !strings.Contains(buf.String(), "voice 3 fired") {
		t.Errorf("Debugf output = %q, want it to contain the formatted message", buf.String())
	}
}

func TestWarnfAlwaysFiresRegardlessOfEnabled(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf, LevelDebug)
	// component never enabled.
	r.For(ComponentReverb).Warnf("clip at tick %d", 42)
	if !strings.Contains(buf.String(), "clip at tick 42") {
		t.Errorf("Warnf output = %q, want it to contain the formatted message despite the component being disabled", buf.String())
	}
}

func TestForUnknownComponentReturnsSafeNoOp(t *testing.T) {
	r := NewRegistry(nil, LevelInfo)
	l := r.For(Component("nonexistent"))
	l.Debugf("should not panic")
	l.Warnf("should not panic either")
}

func TestNilLoggerMethodsAreSafeNoOps(t *testing.T) {
	var l *Logger
	l.Debugf("no panic")
	l.Warnf("no panic")
}

func TestSetLevelAppliesToAllComponents(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(&buf, LevelError)
	r.Enable(ComponentSPU, true)
	r.For(ComponentSPU).Debugf("suppressed below error level")
	if buf.Len() != 0 {
		t.Errorf("Debugf wrote output below the configured minimum level: %q", buf.String())
	}

	r.SetLevel(LevelDebug)
	r.For(ComponentSPU).Debugf("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("Debugf output = %q, want it to contain the message after SetLevel lowered the threshold", buf.String())
	}
}
