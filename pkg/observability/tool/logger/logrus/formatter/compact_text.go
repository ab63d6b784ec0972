package formatter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var levelLetter []byte

func init() {
	levelLetter = make([]byte, len(logrus.AllLevels)+1)
	for _, level := range logrus.AllLevels {
		levelLetter[level] = strings.ToUpper(level.String()[:1])[0]
	}
}

// CompactText is a logrus formatter which prints laconic lines, like
// [12:34 W main.go:56] my message
type CompactText struct {
	TimestampFormat string
	FieldAllowList  []string
}

// Format implements logrus.Formatter.
func (f *CompactText) Format(entry *logrus.Entry) ([]byte, error) {
	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = time.RFC3339
	}

	var out strings.Builder
	out.WriteByte('[')
	out.WriteString(entry.Time.Format(timestampFormat))
	out.WriteByte(' ')
	out.WriteByte(levelLetter[entry.Level])
	if entry.Caller != nil {
		out.WriteString(fmt.Sprintf(" %s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line))
	}
	out.WriteString("] ")
	out.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if f.isAllowed(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		out.WriteString(fmt.Sprintf("\t%s=%v", key, entry.Data[key]))
	}

	out.WriteByte('\n')
	return []byte(out.String()), nil
}

func (f *CompactText) isAllowed(key string) bool {
	if f.FieldAllowList == nil {
		return true
	}
	for _, allowed := range f.FieldAllowList {
		if key == allowed {
			return true
		}
	}
	return false
}
