package main

import (
	"fmt"
	"io"
)

// Output helpers keep icons and indentation consistent across commands.
//
//	✓  success
//	✗  error / invalid
//	-  not found
//	~  informational

func printOK(w io.Writer, name, msg string) {
	printLine(w, "✓", name, msg)
}

func printErr(w io.Writer, name, msg string) {
	printLine(w, "✗", name, msg)
}

func printMiss(w io.Writer, name, msg string) {
	printLine(w, "-", name, msg)
}

func printInfo(w io.Writer, name, msg string) {
	printLine(w, "~", name, msg)
}

func printLine(w io.Writer, icon, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "  %s  %s\n", icon, msg)
	} else {
		fmt.Fprintf(w, "  %s  [%s] %s\n", icon, name, msg)
	}
}
