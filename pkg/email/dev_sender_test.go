package email_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublimeanger/vintifi/pkg/email"
)

func TestDevSender(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes html and metadata files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		require.NoError(t, sender.Send(ctx, email.Message{
			To:       "seller@example.com",
			Subject:  "Your plan changed",
			BodyHTML: "<p>Welcome to Pro</p>",
			Tag:      "plan_changed",
		}))

		htmlFiles, err := filepath.Glob(filepath.Join(dir, "*_plan_changed.html"))
		require.NoError(t, err)
		require.Len(t, htmlFiles, 1)

		body, err := os.ReadFile(htmlFiles[0])
		require.NoError(t, err)
		assert.Contains(t, string(body), "Welcome to Pro")

		jsonFiles, err := filepath.Glob(filepath.Join(dir, "*_plan_changed.json"))
		require.NoError(t, err)
		assert.Len(t, jsonFiles, 1)
	})

	t.Run("rejects invalid messages", func(t *testing.T) {
		t.Parallel()

		sender := email.NewDevSender(t.TempDir())
		err := sender.Send(ctx, email.Message{To: "not-an-address", Subject: "x", BodyHTML: "y"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)

		err = sender.Send(ctx, email.Message{To: "a@b.co", BodyHTML: "y"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}
