package sinks

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"croplands/server/logging"
)

// Console writes one line per event through the standard logger so output
// interleaves cleanly with runtime messages.
type Console struct {
	logger   *log.Logger
	useColor bool
}

func NewConsole(cfg logging.ConsoleConfig) *Console {
	return &Console{
		logger:   log.New(os.Stdout, "", log.LstdFlags),
		useColor: cfg.UseColor,
	}
}

func (c *Console) Write(event logging.Event) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] tick=%d", event.Type, event.Tick)
	if event.Actor.ID != "" {
		fmt.Fprintf(&b, " actor=%s/%s", event.Actor.Kind, event.Actor.ID)
	}
	for _, target := range event.Targets {
		fmt.Fprintf(&b, " target=%s/%s", target.Kind, target.ID)
	}
	fmt.Fprintf(&b, " severity=%s", severityLabel(event.Severity))
	if event.Category != "" {
		fmt.Fprintf(&b, " category=%s", event.Category)
	}
	if event.Payload != nil {
		fmt.Fprintf(&b, " payload=%v", event.Payload)
	}
	for k, v := range event.Extra {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}

	line := b.String()
	if c.useColor {
		line = colorize(event.Severity, line)
	}
	c.logger.Print(line)
	return nil
}

func (c *Console) Close(context.Context) error { return nil }

func severityLabel(s logging.Severity) string {
	switch s {
	case logging.SeverityDebug:
		return "debug"
	case logging.SeverityInfo:
		return "info"
	case logging.SeverityWarn:
		return "warn"
	case logging.SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func colorize(s logging.Severity, line string) string {
	switch s {
	case logging.SeverityWarn:
		return "\x1b[33m" + line + "\x1b[0m"
	case logging.SeverityError:
		return "\x1b[31m" + line + "\x1b[0m"
	default:
		return line
	}
}
