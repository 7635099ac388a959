package logger

import (
	"fmt"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

/* Public */

func Init(logLevel int, logFilePath string) error {
	useLevel := levelFromVerbosity(logLevel)

	// rotating file hook
	if logFilePath != "" {
		fileLogFormatter := &prefixed.TextFormatter{
			FullTimestamp:    true,
			QuoteEmptyFields: true,
			DisableColors:    true,
			ForceFormatting:  true,
		}

		rotateFileHook, err := NewRotateFileHook(RotateFileConfig{
			Filename:   logFilePath,
			MaxSize:    5,
			MaxBackups: 10,
			MaxAge:     90,
			Level:      useLevel,
			Formatter:  fileLogFormatter,
		})
		if err != nil {
			return fmt.Errorf("initialize rotating file hook: %w", err)
		}

		logrus.AddHook(rotateFileHook)
	}

	// console
	logFormatter := &prefixed.TextFormatter{
		FullTimestamp:    true,
		QuoteEmptyFields: true,
		ForceFormatting:  true,
	}

	logrus.SetOutput(colorable.NewColorableStdout())
	logrus.SetFormatter(logFormatter)
	logrus.SetLevel(useLevel)

	return nil
}

func GetLogger(prefix string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"prefix": prefix})
}

/* Private */

func levelFromVerbosity(verbosity int) logrus.Level {
	switch {
	case verbosity <= 0:
		return logrus.InfoLevel
	case verbosity == 1:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}
