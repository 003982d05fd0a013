// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Process level side effects, patched by tests.
var (
	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger carries the expected output of commands
	infoLogger = log.New(os.Stdout, "", 0)

	// usageOut receives usage errors, which exit with a dedicated code
	usageOut io.Writer = os.Stderr
)

// wrapFatalln exits after reporting msg, qualified by err when not nil
func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
		return
	}
	logFatalf("%s: %v", msg, err)
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(usageOut, format+"\n", args...)
	osExit(code)
}
