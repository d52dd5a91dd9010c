package dashboard

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/go-sod/sensord/internal/reading/model"
)

const sparkHistory = 20

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiClear  = "\x1b[H\x1b[2J"
)

// Terminal renders the state as plain text. Colors and screen clearing are
// used only when the output is a terminal.
type Terminal struct {
	w     io.Writer
	field string
	color bool
	now   func() time.Time

	// chronological, at most sparkHistory rows
	history []model.LabeledReading
}

func NewTerminal(w io.Writer, field string) *Terminal {
	t := &Terminal{w: w, field: field, now: time.Now}
	if f, ok := w.(*os.File); ok {
		t.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return t
}

func (t *Terminal) Render(s State) error {
	t.remember(s.Readings)

	var b strings.Builder
	if t.color {
		b.WriteString(ansiClear)
	}
	fmt.Fprintf(&b, "sensord dashboard  cycle %s  updated %s\n",
		humanize.Comma(int64(s.Cycle)), s.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "status: %s", t.paint(strings.ToUpper(s.Status.String()), statusColor(s.Status)))
	if s.Transient() {
		fmt.Fprintf(&b, "  %s", t.paint("(stale: "+failedSteps(s)+")", ansiYellow))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "current: temperature=%.2f humidity=%.2f sound_volume=%.2f\n",
		s.Current.Temperature, s.Current.Humidity, s.Current.SoundVolume)

	values := make([]float64, 0, len(t.history))
	for _, r := range t.history {
		v, _ := r.Field(t.field)
		values = append(values, v)
	}
	fmt.Fprintf(&b, "%s: %s\n", t.field, Sparkline(values))

	fmt.Fprintf(&b, "\nlatest anomalies (%d)\n", len(s.Anomalies))
	if len(s.Anomalies) == 0 {
		b.WriteString("  none\n")
	}
	now := t.now()
	for _, r := range s.Anomalies {
		fmt.Fprintf(&b, "  %-16s temperature=%7.2f humidity=%7.2f sound_volume=%7.2f\n",
			humanize.RelTime(r.Timestamp, now, "ago", "from now"), r.Temperature, r.Humidity, r.SoundVolume)
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

// remember merges the latest rows, which arrive newest first, into the
// chronological history.
func (t *Terminal) remember(rows []model.LabeledReading) {
	var last time.Time
	if n := len(t.history); n > 0 {
		last = t.history[n-1].Timestamp
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Timestamp.After(last) {
			t.history = append(t.history, rows[i])
		}
	}
	if n := len(t.history); n > sparkHistory {
		t.history = append(t.history[:0], t.history[n-sparkHistory:]...)
	}
}

func (t *Terminal) paint(s, color string) string {
	if !t.color || color == "" {
		return s
	}
	return color + s + ansiReset
}

func statusColor(s Status) string {
	switch s {
	case StatusAnomaly:
		return ansiRed
	case StatusNormal:
		return ansiGreen
	default:
		return ""
	}
}

func failedSteps(s State) string {
	steps := make([]string, 0, len(s.Errors))
	for _, step := range []Step{StepNode, StepPredict, StepReadings, StepAnomalies, StepRender} {
		if _, ok := s.Errors[step]; ok {
			steps = append(steps, string(step))
		}
	}
	return strings.Join(steps, ",")
}

// Sparkline scales values between their min and max onto block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkTicks)-1))
		}
		out[i] = sparkTicks[idx]
	}
	return string(out)
}
