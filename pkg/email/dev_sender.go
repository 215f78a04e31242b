package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DevSender implements Sender by writing messages to a local directory, one
// HTML file plus a JSON metadata sidecar per message.
type DevSender struct {
	dir string
}

// NewDevSender creates a disk-backed sender for local development.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (s *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSend, err)
	}

	name := msg.Tag
	if name == "" {
		name = msg.Subject
	}
	base := fmt.Sprintf("%s_%s", time.Now().Format("2006_01_02_150405"), safeFilename(name))

	if err := os.WriteFile(filepath.Join(s.dir, base+".html"), []byte(msg.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSend, err)
	}

	meta, err := json.MarshalIndent(map[string]string{
		"to":      msg.To,
		"subject": msg.Subject,
		"tag":     msg.Tag,
		"sent_at": time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSend, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSend, err)
	}
	return nil
}

func safeFilename(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, s)
	return strings.Trim(mapped, "_")
}
