package logging

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Formatter renders one line per entry: time, level, stage prefix, message, sorted fields
type Formatter struct {
	TimestampFormat string
	DisableColors   bool
}

var (
	levelColors = map[logrus.Level]*color.Color{
		logrus.PanicLevel: color.New(color.FgRed, color.Bold),
		logrus.FatalLevel: color.New(color.FgRed, color.Bold),
		logrus.ErrorLevel: color.New(color.FgRed, color.Bold),
		logrus.WarnLevel:  color.New(color.FgYellow, color.Bold),
		logrus.InfoLevel:  color.New(color.FgCyan),
		logrus.DebugLevel: color.New(color.FgWhite, color.Faint),
		logrus.TraceLevel: color.New(color.FgWhite, color.Faint),
	}
	stageColor = color.New(color.FgBlue)
	fieldColor = color.New(color.FgWhite, color.Faint)
)

// Format implements logrus.Formatter
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if f.TimestampFormat != "" {
		b.WriteString(entry.Time.Format(f.TimestampFormat))
		b.WriteByte(' ')
	}

	level := fmt.Sprintf("%-5s", levelText(entry.Level))
	b.WriteString(f.paint(levelColors[entry.Level], level))
	b.WriteByte(' ')

	if stage, ok := entry.Data["stage"]; ok {
		b.WriteString(f.paint(stageColor, fmt.Sprintf("[%v] ", stage)))
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "stage" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		var fields bytes.Buffer
		for _, k := range keys {
			fmt.Fprintf(&fields, " %s=%v", k, entry.Data[k])
		}
		b.WriteString(f.paint(fieldColor, fields.String()))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if f.DisableColors || c == nil {
		return s
	}
	return c.Sprint(s)
}

func levelText(l logrus.Level) string {
	switch l {
	case logrus.WarnLevel:
		return "WARN"
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return "ERROR"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.TraceLevel:
		return "TRACE"
	default:
		return "DEBUG"
	}
}
