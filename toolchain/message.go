// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MessageLevel is the severity of an optimizer diagnostic.
type MessageLevel uint8

const (
	LevelFatal MessageLevel = iota
	LevelInternalError
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

func (l MessageLevel) String() string {
	switch l {
	case LevelFatal:
		return "FATAL"
	case LevelInternalError:
		return "INTERNAL ERROR"
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARNING"
	case LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// Message is one optimizer diagnostic.
type Message struct {
	Level  MessageLevel
	Source string
	Line   int
	Column int
	Index  int
	Text   string
}

// String formats the message as "LEVEL: source:line:column:index: text".
// The source part is omitted when unknown.
func (m Message) String() string {
	var sb strings.Builder
	sb.WriteString(m.Level.String())
	sb.WriteString(": ")
	if m.Source != "" {
		sb.WriteString(m.Source)
		sb.WriteByte(':')
	}
	fmt.Fprintf(&sb, "%d:%d:%d: %s", m.Line, m.Column, m.Index, m.Text)
	return sb.String()
}

// Keep reports whether the message should be logged. Without verbose only
// errors and worse are kept.
func (m Message) Keep(verbose bool) bool {
	return verbose || m.Level <= LevelError
}

// spirv-opt prints "<level>: line <index>: <text>".
var messagePattern = regexp.MustCompile(`^(fatal|internal error|error|warning|info|debug): (?:line (\d+): )?(.*)$`)

var levelNames = map[string]MessageLevel{
	"fatal":          LevelFatal,
	"internal error": LevelInternalError,
	"error":          LevelError,
	"warning":        LevelWarning,
	"info":           LevelInfo,
	"debug":          LevelDebug,
}

// ParseOptimizerOutput extracts diagnostics from spirv-opt output. Lines
// without a level prefix continue the previous message.
func ParseOptimizerOutput(output string) []Message {
	var msgs []Message
	for _, line := range splitLines(output) {
		sub := messagePattern.FindStringSubmatch(line)
		if sub == nil {
			if len(msgs) > 0 {
				msgs[len(msgs)-1].Text += "\n" + line
			}
			continue
		}
		m := Message{Level: levelNames[sub[1]], Text: sub[3]}
		if sub[2] != "" {
			m.Index, _ = strconv.Atoi(sub[2])
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func splitLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimRight(l, "\r "); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
