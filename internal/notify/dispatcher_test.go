package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"devwish/internal/database"
)

type fakeUsers struct {
	users map[string]database.User
}

func (f fakeUsers) UserFindByID(ctx context.Context, id string) (database.User, error) {
	u, ok := f.users[id]
	if !ok {
		return database.User{}, errors.New("user not found")
	}
	return u, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sendErr error
	sent    []sentMail
}

func (m *fakeMailer) Send(to string, subject string, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type nopLogger struct{}

func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

func TestPriceAlert(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	mailer := &fakeMailer{}
	d := Dispatcher{
		Users: fakeUsers{users: map[string]database.User{
			userID.Hex(): {ID: userID, Username: "alice", Email: "alice@example.com"},
		}},
		Mailer: mailer,
		Logger: nopLogger{},
	}

	d.PriceAlert(context.Background(), userID.Hex(), "Hollow Knight: Silksong", 68, 70)

	if got, want := len(mailer.sent), 1; got != want {
		t.Fatalf("mails sent = %d, want %d", got, want)
	}
	mail := mailer.sent[0]
	if got, want := mail.to, "alice@example.com"; got != want {
		t.Errorf("mail to = %q, want %q", got, want)
	}
	if !strings.Contains(mail.subject, "Hollow Knight: Silksong") {
		t.Errorf("subject %q does not name the item", mail.subject)
	}
	for _, want := range []string{"alice", "¥68.00", "¥70.00"} {
		if !strings.Contains(mail.body, want) {
			t.Errorf("body missing %q:\n%s", want, mail.body)
		}
	}
}

func TestUnlockCongrats(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	mailer := &fakeMailer{}
	d := Dispatcher{
		Users: fakeUsers{users: map[string]database.User{
			userID.Hex(): {ID: userID, Username: "bob", Email: "bob@example.com"},
		}},
		Mailer: mailer,
		Logger: nopLogger{},
	}

	d.UnlockCongrats(context.Background(), userID.Hex(), "Mechanical Keyboard",
		"https://store.example.com/kb", "at least 10 commit(s) in the last week")

	if got, want := len(mailer.sent), 1; got != want {
		t.Fatalf("mails sent = %d, want %d", got, want)
	}
	body := mailer.sent[0].body
	for _, want := range []string{"bob", "Mechanical Keyboard", "https://store.example.com/kb", "10 commit(s)"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestDispatcherSkipsUnknownUser(t *testing.T) {
	t.Parallel()
	mailer := &fakeMailer{}
	d := Dispatcher{Users: fakeUsers{}, Mailer: mailer, Logger: nopLogger{}}

	d.PriceAlert(context.Background(), primitive.NewObjectID().Hex(), "Item", 10, 20)

	if got, want := len(mailer.sent), 0; got != want {
		t.Errorf("mails sent = %d, want %d", got, want)
	}
}

func TestDispatcherSkipsUserWithoutEmail(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	mailer := &fakeMailer{}
	d := Dispatcher{
		Users:  fakeUsers{users: map[string]database.User{userID.Hex(): {ID: userID, Username: "carol"}}},
		Mailer: mailer,
		Logger: nopLogger{},
	}

	d.UnlockCongrats(context.Background(), userID.Hex(), "Item", "https://example.com", "condition")

	if got, want := len(mailer.sent), 0; got != want {
		t.Errorf("mails sent = %d, want %d", got, want)
	}
}

func TestDispatcherSwallowsTransportErrors(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	d := Dispatcher{
		Users: fakeUsers{users: map[string]database.User{
			userID.Hex(): {ID: userID, Username: "dave", Email: "dave@example.com"},
		}},
		Mailer: &fakeMailer{sendErr: errors.New("connection refused")},
		Logger: nopLogger{},
	}

	// Must not panic or propagate; the alert is simply lost.
	d.PriceAlert(context.Background(), userID.Hex(), "Item", 10, 20)
}
