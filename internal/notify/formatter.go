package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Booking is the data rendered into a new-request notification.
type Booking struct {
	Name    string
	Phone   string
	Service string
	Comment string
	At      time.Time
}

var supportedLocales = []language.Tag{language.Russian, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

type templates struct {
	layout     string
	booking    string
	name       string
	phone      string
	service    string
	comment    string
	time       string
	testTitle  string
	testBody   string
	welcome    string
	testResult string
}

var byLocale = map[language.Tag]templates{
	language.Russian: {
		layout:     "02.01.2006, 15:04:05",
		booking:    "🔔 <b>Новая заявка!</b>",
		name:       "👤 <b>Имя:</b> ",
		phone:      "📞 <b>Телефон:</b> ",
		service:    "💅 <b>Услуга:</b> ",
		comment:    "💬 <b>Комментарий:</b> ",
		time:       "⏰ <b>Время:</b> ",
		testTitle:  "🔔 <b>Тестовое уведомление!</b>",
		testBody:   "Это тестовое сообщение от %s.\nЕсли вы его получили, значит настройка работает правильно!",
		welcome:    "Добро пожаловать! Теперь вы будете получать уведомления о новых заявках от %s.",
		testResult: "Отправлено %d из %d подписчиков",
	},
	language.English: {
		layout:     "01/02/2006, 15:04:05",
		booking:    "🔔 <b>New booking request!</b>",
		name:       "👤 <b>Name:</b> ",
		phone:      "📞 <b>Phone:</b> ",
		service:    "💅 <b>Service:</b> ",
		comment:    "💬 <b>Comment:</b> ",
		time:       "⏰ <b>Time:</b> ",
		testTitle:  "🔔 <b>Test notification!</b>",
		testBody:   "This is a test message from %s.\nIf you received it, notifications are set up correctly!",
		welcome:    "Welcome! You will now receive new booking notifications from %s.",
		testResult: "Sent to %d of %d subscribers",
	},
}

// Formatter renders notification texts. Output depends only on its inputs,
// the configured time zone and the clock.
type Formatter struct {
	loc *time.Location
	t   templates
	now func() time.Time
}

// NewFormatter returns a formatter for the closest supported locale to tag.
// A nil loc means UTC.
func NewFormatter(loc *time.Location, tag language.Tag) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	_, idx, _ := localeMatcher.Match(tag)
	return &Formatter{loc: loc, t: byLocale[supportedLocales[idx]], now: time.Now}
}

// WithClock returns a copy of f that reads time from now.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	c := *f
	c.now = now
	return &c
}

func (f *Formatter) stamp(at time.Time) string {
	if at.IsZero() {
		at = f.now()
	}
	return at.In(f.loc).Format(f.t.layout)
}

// BookingMessage renders a new-request notification. The comment line is
// present only when a comment was supplied.
func (f *Formatter) BookingMessage(b Booking) string {
	var sb strings.Builder
	sb.WriteString(f.t.booking)
	sb.WriteString("\n\n")
	sb.WriteString(f.t.name + html.EscapeString(b.Name) + "\n")
	sb.WriteString(f.t.phone + html.EscapeString(b.Phone) + "\n")
	sb.WriteString(f.t.service + html.EscapeString(b.Service))
	if c := strings.TrimSpace(b.Comment); c != "" {
		sb.WriteString("\n" + f.t.comment + html.EscapeString(c))
	}
	sb.WriteString("\n\n")
	sb.WriteString(f.t.time + f.stamp(b.At))
	return sb.String()
}

// TestMessage renders the admin "send test" message.
func (f *Formatter) TestMessage(masterName string) string {
	return f.t.testTitle + "\n\n" +
		fmt.Sprintf(f.t.testBody, html.EscapeString(masterName)) + "\n\n" +
		f.t.time + f.stamp(time.Time{})
}

// WelcomeMessage renders the reply to a new subscriber.
func (f *Formatter) WelcomeMessage(masterName string) string {
	return fmt.Sprintf(f.t.welcome, html.EscapeString(masterName))
}

// TestResult renders the "sent N of M" summary shown to the admin.
func (f *Formatter) TestResult(sent, total int) string {
	return fmt.Sprintf(f.t.testResult, sent, total)
}
