// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var text, structured bytes.Buffer

	newLogger(&text, true, slog.LevelInfo).Info("packed", "files", 3)
	if !strings.Contains(text.String(), "msg=packed files=3") {
		t.Errorf("terminal output = %q", text.String())
	}

	logger := newLogger(&structured, false, slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept", "path", "a")
	if strings.Contains(structured.String(), "dropped") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(structured.String(), `"msg":"kept","path":"a"`) {
		t.Errorf("json output = %q", structured.String())
	}
}
