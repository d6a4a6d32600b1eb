package services

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nvoss/brewid/internal/database/testutil"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/crypto"
	"github.com/nvoss/brewid/pkg/mail"
)

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// captureMailer records every message handed to it.
type captureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *captureMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages)
	return m.messages[len(m.messages)-1]
}

// lastCode extracts the 6-digit code from the most recent message body.
func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	match := codePattern.FindStringSubmatch(m.last(t).Body)
	require.Len(t, match, 2)
	return match[1]
}

func newTestUserStore(t *testing.T) store.UserStore {
	t.Helper()
	s, err := store.NewUserStore(testutil.MustOpenTestDB(t))
	require.NoError(t, err)
	return s
}

func testHasher() *crypto.Hasher {
	return crypto.NewHasher(bcrypt.MinCost)
}
