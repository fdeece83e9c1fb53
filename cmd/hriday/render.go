package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		line = ansiBlue + line + ansiReset
	}
	return []string{line}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

// printSession writes a compact multi-line summary of one session.
func printSession(out io.Writer, sess api.Session) {
	fmt.Fprintf(out, "Session %d: %s", sess.ID, sess.State)
	if sess.Mode != "" && sess.Mode != "unselected" {
		fmt.Fprintf(out, " (%s)", sess.Mode)
	}
	fmt.Fprintln(out)
	if sess.FileName != "" {
		fmt.Fprintf(out, "  File: %s (%.2f MB)\n", sess.FileName, sess.DisplaySizeMB)
	}
	if sess.RecordingID != "" {
		fmt.Fprintf(out, "  Recording: %s\n", sess.RecordingID)
	}
	if sess.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error: %s\n", sess.ErrorMessage)
	}
}

func sessionRows(sessions []api.Session) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, sess := range sessions {
		size := ""
		if sess.SizeBytes > 0 {
			size = fmt.Sprintf("%.2f MB", sess.DisplaySizeMB)
		}
		detail := sess.RecordingID
		if detail == "" {
			detail = sess.ErrorMessage
		}
		rows = append(rows, []string{
			strconv.FormatInt(sess.ID, 10),
			sess.State,
			sess.Mode,
			sess.FileName,
			size,
			detail,
		})
	}
	return rows
}

var sessionTableColumns = []tableColumn{
	numCol("ID"), col("State"), col("Mode"), col("File"), numCol("Size"), col("Detail"),
}
