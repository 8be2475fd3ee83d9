package inbox

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

type mockTemplate struct {
	from    string
	subject string
	body    string
}

var spamTemplates = []mockTemplate{
	{"lottery@winner-notice.biz", "You have WON $1,000,000!!!", "Congratulations! Your email was selected in our international lottery. Send your bank details and a processing fee of $99 to claim your prize today."},
	{"security@paypa1-verify.com", "Urgent: account suspended", "We detected unusual activity. Click http://paypa1-verify.com/login within 24 hours or your account will be permanently closed."},
	{"deals@cheap-meds-online.ru", "Lowest prices on meds, no prescription", "Buy now and save 90%! No prescription needed, discreet shipping worldwide. Limited time offer."},
	{"prince.abubakar@royal-mail.ng", "Confidential business proposal", "I am a prince seeking a trustworthy partner to transfer $25,000,000. You will receive 30% for your assistance."},
	{"crypto@moonshot-coin.io", "Turn $100 into $10,000 this week", "Our AI trading bot guarantees 10000% returns. Join thousands of millionaires. Deposit now before the offer expires!"},
}

var legitTemplates = []mockTemplate{
	{"alice@example.com", "Team meeting moved to 3pm", "Hi all, the weekly sync is moved to 3pm tomorrow in room 4B. Agenda is unchanged. Thanks, Alice"},
	{"billing@utility.example.org", "Your March statement is ready", "Your statement for March is available in your online account. The amount due is $54.20, payable by April 15."},
	{"bob@example.com", "Re: code review", "Looks good to me. I left two small comments on the error handling in the parser, otherwise ready to merge."},
	{"noreply@library.example.edu", "Book due reminder", "The book 'Distributed Systems' you borrowed is due on Friday. You can renew it online or at the front desk."},
	{"carol@example.net", "Dinner on Saturday?", "Hey! Are you free for dinner on Saturday? There's a new Thai place near the station I've been wanting to try."},
}

// MockFetcher fills a Mailbox with generated spam and legitimate emails
type MockFetcher struct {
	rng *rand.Rand
}

// NewMockFetcher creates a new mock fetcher. The same seed produces the same emails.
func NewMockFetcher(seed int64) *MockFetcher {
	return &MockFetcher{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns count emails, roughly half of them spam
func (f *MockFetcher) Generate(count int) []core.Email {
	base := time.Now().Add(-time.Duration(count) * time.Minute)
	emails := make([]core.Email, 0, count)
	for i := 0; i < count; i++ {
		pool := legitTemplates
		if f.rng.Intn(2) == 0 {
			pool = spamTemplates
		}
		tpl := pool[f.rng.Intn(len(pool))]
		emails = append(emails, core.Email{
			ID:         fmt.Sprintf("mock-%03d", i+1),
			From:       tpl.from,
			To:         []string{"me@example.com"},
			Subject:    tpl.subject,
			Body:       tpl.body,
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return emails
}

// Populate delivers count generated emails into folder and returns them
func (f *MockFetcher) Populate(mailbox *Mailbox, folder string, count int) []core.Email {
	emails := f.Generate(count)
	for i := range emails {
		emails[i] = mailbox.Deliver(folder, emails[i])
	}
	return emails
}
