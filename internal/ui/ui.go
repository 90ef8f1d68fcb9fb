// Package ui holds the terminal output helpers. Status lines go to stderr
// so stdout stays clean for the list table and git output.
package ui

import (
	"os"

	"github.com/fatih/color"
)

var (
	headerColor  = color.New(color.FgBlue, color.Bold)
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	promptColor  = color.New(color.FgBlue)
	dimColor     = color.New(color.Faint)
)

func Header(format string, a ...interface{}) {
	headerColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	successColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	warningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Dim(format string, a ...interface{}) {
	dimColor.Fprintf(os.Stderr, format+"\n", a...)
}

// Prompt renders prompt text without a trailing newline; the caller reads
// the answer from the same terminal.
func Prompt(format string, a ...interface{}) string {
	return promptColor.Sprintf(format, a...)
}

// HelpLine prints one aligned token/description pair of the prompt help.
func HelpLine(token, desc string) {
	infoColor.Fprintf(os.Stderr, "%-8s", token)
	dimColor.Fprintf(os.Stderr, "- %s\n", desc)
}
