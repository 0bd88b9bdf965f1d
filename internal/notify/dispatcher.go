package notify

import (
	"context"
	"fmt"

	"devwish/internal/database"
)

type MailSender interface {
	Send(to string, subject string, body string) error
}

type UserDirectory interface {
	UserFindByID(ctx context.Context, id string) (database.User, error)
}

type logger interface {
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Dispatcher delivers templated alerts to a user's email address. Every
// failure path ends here: a missing user, a missing address or a transport
// error is logged and dropped, never surfaced to the caller. There is no
// retry and no queue; a lost notification stays lost until the next trigger.
type Dispatcher struct {
	Users  UserDirectory
	Mailer MailSender
	Logger logger
}

func (d Dispatcher) PriceAlert(ctx context.Context, userID string, itemTitle string, currentPrice float64, targetPrice float64) {
	u, ok := d.recipient(ctx, userID)
	if !ok {
		return
	}

	subject := fmt.Sprintf("Wishlist price alert: %s has dropped!", itemTitle)
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"An item on your wishlist, \"%s\", has reached or dropped below your target price!\n\n"+
			"- Your target price: ¥%.2f\n"+
			"- Current price: ¥%.2f\n\n"+
			"---\n"+
			"Wishlist Aggregator",
		u.Username, itemTitle, targetPrice, currentPrice,
	)
	d.send(u, subject, body)
}

func (d Dispatcher) UnlockCongrats(ctx context.Context, userID string, itemTitle string, itemURL string, conditionDesc string) {
	u, ok := d.recipient(ctx, userID)
	if !ok {
		return
	}

	subject := fmt.Sprintf("Congratulations! Your wish \"%s\" is unlocked!", itemTitle)
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your GitHub activity hit the goal you set:\n"+
			"[ %s ]\n\n"+
			"Your wish \"%s\" is now unlocked. Time to treat yourself:\n"+
			"%s\n\n"+
			"---\n"+
			"The DevLife incentive crew",
		u.Username, conditionDesc, itemTitle, itemURL,
	)
	d.send(u, subject, body)
}

func (d Dispatcher) recipient(ctx context.Context, userID string) (database.User, bool) {
	u, err := d.Users.UserFindByID(ctx, userID)
	if err != nil {
		d.Logger.Warnf("notify: User with ID: %s not found, skipping notification, err: %v", userID, err)
		return u, false
	}
	if u.Email == "" {
		d.Logger.Warnf("notify: User with ID: %s has no email configured, skipping notification", userID)
		return u, false
	}
	return u, true
}

func (d Dispatcher) send(u database.User, subject string, body string) {
	if err := d.Mailer.Send(u.Email, subject, body); err != nil {
		d.Logger.Errorf("notify: Error sending mail to: %s, subject: %s, err: %v", u.Email, subject, err)
		return
	}
	d.Logger.Infof("notify: Sent mail to: %s, subject: %s", u.Email, subject)
}
