package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Test binaries only print logs when run verbosely.
func init() {
	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=true") {
			return
		}
	}
	logrus.StandardLogger().SetOutput(io.Discard)
}

// DisableLogging silences the standard logger until reset is called.
func DisableLogging() (reset func()) {
	original := logrus.StandardLogger().Out
	logrus.StandardLogger().SetOutput(io.Discard)
	return func() {
		logrus.StandardLogger().SetOutput(original)
	}
}
