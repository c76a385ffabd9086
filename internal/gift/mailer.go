package gift

// Mailer sends outbound notification mail. Delivery failures are logged but
// never fail the operation that triggered them.
type Mailer interface {
	Send(to, subject, body string) error
}

// NopMailer is a Mailer that drops all mail. Use in tests and in
// deployments without an SMTP relay.
type NopMailer struct{}

func NewNopMailer() *NopMailer { return &NopMailer{} }

func (*NopMailer) Send(string, string, string) error { return nil }
