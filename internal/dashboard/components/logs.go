package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abcfe/abcfe-wallet/internal/dashboard/styles"
)

// 데몬 로거가 메시지를 싣는 키 (common/logger 의 Info/Debug/Warn/Error/Crit)
var messageKeys = []string{"Info", "Debug", "Warn", "Err", "Crit"}

// LogEntry는 데몬 JSON 로그 한 줄
type LogEntry struct {
	Time    time.Time
	Level   string
	Logger  string // Named 로거 이름, 없으면 빈 값
	Message string
}

// ParseLogEntry는 zap JSON 한 줄을 해석. JSON이 아니면 원문을 메시지로 둔다.
func ParseLogEntry(line []byte) LogEntry {
	var fields map[string]interface{}
	if err := json.Unmarshal(line, &fields); err != nil {
		return LogEntry{Level: "INFO", Message: string(line)}
	}

	entry := LogEntry{Level: "INFO"}
	if lv, ok := fields["level"].(string); ok && lv != "" {
		entry.Level = lv
	}
	if ts, ok := fields["date"].(string); ok {
		// ISO8601TimeEncoder 형식
		if t, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err == nil {
			entry.Time = t
		}
	}
	if name, ok := fields["logger"].(string); ok {
		entry.Logger = name
	}

	for _, key := range messageKeys {
		if msg, ok := fields[key].(string); ok {
			entry.Message = msg
			return entry
		}
	}
	// Named 로거는 msg에 본문을 싣고 나머지는 필드로 남는다
	msg, _ := fields["msg"].(string)
	if extra := extraFields(fields); extra != "" {
		msg += " " + extra
	}
	entry.Message = msg
	return entry
}

func extraFields(fields map[string]interface{}) string {
	var parts []string
	for k, v := range fields {
		switch k {
		case "level", "date", "logger", "msg", "caller", "service", "stacktrace":
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	// map 순회 순서 고정
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// LogTail은 오늘자 로그 파일 끝부분을 따라가며 최근 keep개 항목만 보관
type LogTail struct {
	prefix string
	keep   int
	now    func() time.Time

	path    string
	offset  int64
	partial []byte
	entries []LogEntry
	missing bool
}

// NewLogTail prefix는 config의 LogInfo.Path (날짜 접미사 제외)
func NewLogTail(prefix string, keep int) *LogTail {
	if keep < 1 {
		keep = 1
	}
	return &LogTail{prefix: prefix, keep: keep, now: time.Now}
}

// Path는 오늘자 로그 파일 경로
func (t *LogTail) Path() string {
	return fmt.Sprintf("%s_%s.log", t.prefix, t.now().Format("2006-01-02"))
}

// Poll은 지난 호출 이후 추가된 줄만 읽는다.
// 날짜가 바뀌었거나 파일이 잘렸으면 처음부터 다시 읽는다.
func (t *LogTail) Poll() error {
	path := t.Path()
	if path != t.path {
		t.reset(path)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.missing = true
			return nil
		}
		return err
	}
	defer f.Close()
	t.missing = false

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < t.offset {
		t.reset(path)
	}
	if info.Size() == t.offset {
		return nil
	}

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}
	chunk, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	t.offset += int64(len(chunk))
	t.consume(chunk)
	return nil
}

func (t *LogTail) reset(path string) {
	t.path = path
	t.offset = 0
	t.partial = nil
	t.entries = nil
}

// consume는 완성된 줄만 항목으로 만들고 끝의 미완성 줄은 다음 Poll로 넘긴다
func (t *LogTail) consume(chunk []byte) {
	data := append(t.partial, chunk...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(data[:i])
		data = data[i+1:]
		if len(line) > 0 {
			t.push(ParseLogEntry(line))
		}
	}
	t.partial = append([]byte(nil), data...)
}

func (t *LogTail) push(e LogEntry) {
	t.entries = append(t.entries, e)
	if over := len(t.entries) - t.keep; over > 0 {
		t.entries = append(t.entries[:0:0], t.entries[over:]...)
	}
}

// Entries는 오래된 것부터 최근 항목 반환
func (t *LogTail) Entries() []LogEntry {
	return t.entries
}

// View는 width 폭에 맞춰 활동 로그 영역을 그린다
func (t *LogTail) View(width int) string {
	var b strings.Builder
	b.WriteString(styles.SectionStyle.Render("Activity"))
	b.WriteString(styles.DimStyle.Render("  " + filepath.Base(t.Path())))
	b.WriteString("\n")

	if t.missing {
		b.WriteString(styles.DimStyle.Render("  데몬 로그 파일이 아직 없습니다"))
		return b.String()
	}
	if len(t.entries) == 0 {
		b.WriteString(styles.DimStyle.Render("  조용함"))
		return b.String()
	}

	room := width - 18
	if room < 24 {
		room = 24
	}
	for _, e := range t.entries {
		stamp := "--:--:--"
		if !e.Time.IsZero() {
			stamp = e.Time.Local().Format("15:04:05")
		}
		msg := e.Message
		if e.Logger != "" {
			msg = "[" + e.Logger + "] " + msg
		}
		if r := []rune(msg); len(r) > room {
			msg = string(r[:room-1]) + "…"
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			styles.DimStyle.Render(stamp),
			styles.LevelStyle(e.Level).Render(fmt.Sprintf("%.1s", e.Level)),
			msg)
	}
	return b.String()
}
