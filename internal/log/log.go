// Package log provides the service's leveled loggers.
package log

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

var (
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
)

func init() {
	Info = log.New(os.Stdout,
		color.GreenString("[INFO] "),
		log.Ldate|log.Ltime|log.Lshortfile)
	Warn = log.New(os.Stdout,
		color.YellowString("[WARN] "),
		log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(os.Stderr,
		color.RedString("[ERROR] "),
		log.Ldate|log.Ltime|log.Lshortfile)
}

// SetOutput redirects all levels to w. Tests use it to capture or mute output.
func SetOutput(w io.Writer) {
	Info.SetOutput(w)
	Warn.SetOutput(w)
	Error.SetOutput(w)
}
