package logging

import (
	"context"
	"strings"
	"testing"
)

func TestDefaultLevelSuppressesInfo(t *testing.T) {
	ctx, buf := NewTestContext(Flags{})
	l := FromContext(ctx)
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be suppressed at default level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn should be emitted at default level")
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	ctx, buf := NewTestContext(Flags{Verbose: true})
	FromContext(ctx).Debug("dbg", "k", "v")
	if !strings.Contains(buf.String(), "dbg") {
		t.Error("debug should be emitted when verbose")
	}
}

func TestQuietWinsOverVerbose(t *testing.T) {
	ctx, buf := NewTestContext(Flags{Verbose: true, Quiet: true})
	l := FromContext(ctx)
	l.Warn("warned")
	l.Error("errored")
	out := buf.String()
	if strings.Contains(out, "warned") {
		t.Error("warn should be suppressed in quiet mode")
	}
	if !strings.Contains(out, "errored") {
		t.Error("error should still be emitted in quiet mode")
	}
}

func TestJSONFormatter(t *testing.T) {
	ctx, buf := NewTestContext(Flags{JSON: true})
	FromContext(ctx).Error("boom", "provider", "claude")
	out := buf.String()
	if !strings.Contains(out, `"provider":"claude"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestFromContext_MissingLoggerDiscards(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil {
		t.Fatal("expected fallback logger")
	}
	// Must not panic when used.
	l.Error("ignored")
}
